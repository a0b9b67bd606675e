package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/chat"
	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/models"
	"github.com/PremSagarPadhy/REASTURANT-POS-sub001/services"
	"github.com/labstack/echo/v4"
)

// SupportHandler 客服 REST 适配层
// 只做参数解析和错误码映射，落库和广播都走 chat.Dispatcher 的核心操作，
// 和 WebSocket 入口共用同一套逻辑
type SupportHandler struct {
	dispatcher *chat.Dispatcher
	store      *services.SupportStore
}

func NewSupportHandler(dispatcher *chat.Dispatcher, store *services.SupportStore) *SupportHandler {
	return &SupportHandler{dispatcher: dispatcher, store: store}
}

// RegisterCustomer 顾客首次接入时建档（邮箱/手机号任一匹配即复用）
func (h *SupportHandler) RegisterCustomer(c echo.Context) error {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Email == "" && req.Phone == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "email or phone required"})
	}

	ctx := c.Request().Context()

	if req.Email != "" {
		if customer, err := h.store.FindCustomerByEmail(ctx, req.Email); err == nil {
			return c.JSON(http.StatusOK, map[string]interface{}{"customer": customer})
		} else if !errors.Is(err, chat.ErrCustomerNotFound) {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "database error"})
		}
	}
	if req.Phone != "" {
		if customer, err := h.store.FindCustomerByPhone(ctx, req.Phone); err == nil {
			return c.JSON(http.StatusOK, map[string]interface{}{"customer": customer})
		} else if !errors.Is(err, chat.ErrCustomerNotFound) {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "database error"})
		}
	}

	customer := models.Customer{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	}
	if err := h.store.CreateCustomer(ctx, &customer); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create customer"})
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"customer": customer})
}

// ListCustomers 客服工作台顾客列表，可按状态过滤
func (h *SupportHandler) ListCustomers(c echo.Context) error {
	status := c.QueryParam("status") // active, resolved
	customers, err := h.store.ListCustomers(c.Request().Context(), status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch customers"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"customers": customers,
		"total":     len(customers),
	})
}

// GetMessages 获取某个顾客的历史消息（时间正序，分页）
func (h *SupportHandler) GetMessages(c echo.Context) error {
	customerID, err := h.customerID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid customer ID"})
	}

	limit := 50
	offset := 0
	if v := c.QueryParam("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	if v := c.QueryParam("offset"); v != "" {
		offset, _ = strconv.Atoi(v)
	}

	messages, err := h.store.ListMessages(c.Request().Context(), customerID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch messages"})
	}
	return c.JSON(http.StatusOK, messages)
}

// SendCustomerMessage 顾客从 REST 入口发消息（widget 的降级通道）
func (h *SupportHandler) SendCustomerMessage(c echo.Context) error {
	customerID, err := h.customerID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid customer ID"})
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	msg, err := h.dispatcher.SendCustomerMessage(c.Request().Context(), customerID, req.Text)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"message": msg})
}

// SendAdminMessage 管理员从工作台回复
func (h *SupportHandler) SendAdminMessage(c echo.Context) error {
	user := c.Get("user").(*models.User)
	customerID, err := h.customerID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid customer ID"})
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	msg, err := h.dispatcher.SendAdminMessage(c.Request().Context(), customerID, user.ID, req.Text, "")
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"message": msg})
}

// MarkRead 管理员把整个会话标记已读
func (h *SupportHandler) MarkRead(c echo.Context) error {
	customerID, err := h.customerID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid customer ID"})
	}
	if err := h.dispatcher.MarkAllRead(c.Request().Context(), customerID); err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "marked as read"})
}

// UpdateStatus 切换会话状态
func (h *SupportHandler) UpdateStatus(c echo.Context) error {
	customerID, err := h.customerID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid customer ID"})
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if err := h.dispatcher.SetStatus(c.Request().Context(), customerID, req.Status); err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": req.Status})
}

func (h *SupportHandler) customerID(c echo.Context) (uint, error) {
	id64, err := strconv.ParseUint(c.Param("customerId"), 10, 64)
	if err != nil || id64 == 0 {
		return 0, errors.New("invalid customer id")
	}
	return uint(id64), nil
}

func (h *SupportHandler) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, chat.ErrCustomerNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, chat.ErrInvalidCustomer),
		errors.Is(err, chat.ErrInvalidStatus),
		errors.Is(err, chat.ErrEmptyMessage):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
