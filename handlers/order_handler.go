package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/services"
	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// CreateOrder 开台下单
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var req struct {
		TableID    uint                      `json:"table_id"`
		CustomerID *uint                     `json:"customer_id"`
		Items      []services.OrderItemInput `json:"items"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	order, err := h.orderService.CreateOrder(c.Request().Context(), req.TableID, req.CustomerID, req.Items)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	status := c.QueryParam("status") // open, completed, cancelled
	orders, err := h.orderService.ListOrders(c.Request().Context(), status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch orders"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  len(orders),
	})
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	orderID, err := h.orderID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
	}
	order, err := h.orderService.GetOrder(c.Request().Context(), orderID)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// CompleteOrder 结单，同时释放餐桌
func (h *OrderHandler) CompleteOrder(c echo.Context) error {
	orderID, err := h.orderID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
	}
	order, err := h.orderService.CompleteOrder(c.Request().Context(), orderID)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	orderID, err := h.orderID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
	}
	order, err := h.orderService.CancelOrder(c.Request().Context(), orderID)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// RecordPayment 收款并结单
func (h *OrderHandler) RecordPayment(c echo.Context) error {
	orderID, err := h.orderID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
	}
	var req struct {
		Amount float64 `json:"amount"`
		Method string  `json:"method"` // cash, card
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	payment, err := h.orderService.RecordPayment(c.Request().Context(), orderID, req.Amount, req.Method)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusCreated, payment)
}

func (h *OrderHandler) orderID(c echo.Context) (uint, error) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id64), nil
}

func (h *OrderHandler) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrTableNotFound),
		errors.Is(err, services.ErrMenuItemGone):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrTableOccupied),
		errors.Is(err, services.ErrOrderClosed),
		errors.Is(err, services.ErrOutOfStock):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrEmptyOrder),
		errors.Is(err, services.ErrInvalidPayment):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
