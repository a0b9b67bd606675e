package handlers

import (
	"net/http"
	"strconv"

	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/models"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type MenuHandler struct {
	db *gorm.DB
}

func NewMenuHandler(db *gorm.DB) *MenuHandler {
	return &MenuHandler{db: db}
}

// ListMenuItems 获取菜品列表，可按分类过滤
func (h *MenuHandler) ListMenuItems(c echo.Context) error {
	query := h.db.Model(&models.MenuItem{})
	if cid := c.QueryParam("category_id"); cid != "" {
		id, err := strconv.ParseUint(cid, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid category_id"})
		}
		query = query.Where("category_id = ?", id)
	}
	if c.QueryParam("available") == "true" {
		query = query.Where("available = ? AND stock > 0", true)
	}

	var items []models.MenuItem
	if err := query.Order("id ASC").Find(&items).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list menu items"})
	}
	return c.JSON(http.StatusOK, items)
}

func (h *MenuHandler) GetMenuItem(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid menu item id"})
	}
	var item models.MenuItem
	if err := h.db.First(&item, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "menu item not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get menu item"})
	}
	return c.JSON(http.StatusOK, item)
}

// CreateMenuItem 创建菜品（管理员）
func (h *MenuHandler) CreateMenuItem(c echo.Context) error {
	var req struct {
		CategoryID uint    `json:"category_id"`
		Name       string  `json:"name"`
		Price      float64 `json:"price"`
		Stock      int     `json:"stock"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Name == "" || req.Price < 0 || req.Stock < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name required, price and stock must be non-negative"})
	}

	// 分类必须存在
	var count int64
	h.db.Model(&models.Category{}).Where("id = ?", req.CategoryID).Count(&count)
	if count == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "category not found"})
	}

	item := models.MenuItem{
		CategoryID: req.CategoryID,
		Name:       req.Name,
		Price:      req.Price,
		Stock:      req.Stock,
		Available:  true,
	}
	if err := h.db.Create(&item).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create menu item"})
	}
	return c.JSON(http.StatusCreated, item)
}

// UpdateMenuItem 更新菜品（管理员）
func (h *MenuHandler) UpdateMenuItem(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid menu item id"})
	}
	var item models.MenuItem
	if err := h.db.First(&item, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "menu item not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get menu item"})
	}

	var req struct {
		Name      string   `json:"name"`
		Price     *float64 `json:"price"`
		Available *bool    `json:"available"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "price must be non-negative"})
		}
		updates["price"] = *req.Price
	}
	if req.Available != nil {
		updates["available"] = *req.Available
	}
	if err := h.db.Model(&item).Updates(updates).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update menu item"})
	}
	return c.JSON(http.StatusOK, item)
}

// AdjustStock 调整库存（管理员），delta 可为负
func (h *MenuHandler) AdjustStock(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid menu item id"})
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if err := c.Bind(&req); err != nil || req.Delta == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "delta must be a non-zero integer"})
	}

	// 原子调整，扣减时不允许为负
	query := h.db.Model(&models.MenuItem{}).Where("id = ?", id)
	if req.Delta < 0 {
		query = query.Where("stock >= ?", -req.Delta)
	}
	res := query.Update("stock", gorm.Expr("stock + ?", req.Delta))
	if res.Error != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to adjust stock"})
	}
	if res.RowsAffected == 0 {
		return c.JSON(http.StatusConflict, map[string]string{"error": "menu item not found or insufficient stock"})
	}

	var item models.MenuItem
	h.db.First(&item, id)
	return c.JSON(http.StatusOK, item)
}

// DeleteMenuItem 删除菜品（管理员）
func (h *MenuHandler) DeleteMenuItem(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid menu item id"})
	}
	if err := h.db.Delete(&models.MenuItem{}, id).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete menu item"})
	}
	return c.JSON(http.StatusNoContent, nil)
}
