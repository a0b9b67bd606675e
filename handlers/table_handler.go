package handlers

import (
	"net/http"
	"strconv"

	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/models"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type TableHandler struct {
	db *gorm.DB
}

func NewTableHandler(db *gorm.DB) *TableHandler {
	return &TableHandler{db: db}
}

// ListTables 所有餐桌及占用状态
func (h *TableHandler) ListTables(c echo.Context) error {
	var tables []models.Table
	query := h.db.Order("number ASC")
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&tables).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch tables"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tables": tables,
		"total":  len(tables),
	})
}

// CreateTable 添加餐桌（管理员）
func (h *TableHandler) CreateTable(c echo.Context) error {
	var req struct {
		Number   int `json:"number"`
		Capacity int `json:"capacity"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Number <= 0 || req.Capacity <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "number and capacity must be positive"})
	}

	table := models.Table{
		Number:   req.Number,
		Capacity: req.Capacity,
		Status:   models.TableStatusFree,
	}
	if err := h.db.Create(&table).Error; err != nil {
		return c.JSON(http.StatusConflict, map[string]string{"error": "table number already exists"})
	}
	return c.JSON(http.StatusCreated, table)
}

// DeleteTable 删除餐桌（管理员），占用中的不允许删
func (h *TableHandler) DeleteTable(c echo.Context) error {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
	}

	var table models.Table
	if err := h.db.First(&table, id64).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "table not found"})
	}
	if table.Status == models.TableStatusOccupied {
		return c.JSON(http.StatusConflict, map[string]string{"error": "table is occupied"})
	}

	if err := h.db.Delete(&table).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete table"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "table deleted"})
}
