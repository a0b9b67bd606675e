package chat

import "encoding/json"

// 事件名（与前端 widget / 管理端约定）
const (
	EventCustomerAuth    = "customer:auth"
	EventAdminAuth       = "admin:auth"
	EventCustomerMessage = "customer:message"
	EventAdminMessage    = "admin:message"
	EventAdminRead       = "admin:read"
	EventCustomerRead    = "customer:read"
	EventCustomerTyping  = "customer:typing"
	EventAdminTyping     = "admin:typing"
	EventSupportStatus   = "support:status"
	EventCustomerOnline  = "customer:online"
	EventCustomerOffline = "customer:offline"
	EventMessageSent     = "message:sent"
	EventError           = "error"
)

// Frame WebSocket 上的一帧：{"event": "...", "payload": {...}}
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// 入站 payload

type CustomerAuthPayload struct {
	CustomerID uint `json:"customer_id"`
}

type AdminAuthPayload struct {
	AdminID uint `json:"admin_id"`
}

type CustomerMessagePayload struct {
	CustomerID uint   `json:"customer_id"`
	Text       string `json:"text"`
}

type AdminMessagePayload struct {
	CustomerID uint   `json:"customer_id"`
	AdminID    uint   `json:"admin_id"`
	Text       string `json:"text"`
}

type ReadPayload struct {
	CustomerID uint   `json:"customer_id"`
	MessageIDs []uint `json:"message_ids,omitempty"`
}

type TypingPayload struct {
	CustomerID uint `json:"customer_id"`
	IsTyping   bool `json:"is_typing"`
}

type StatusPayload struct {
	CustomerID uint   `json:"customer_id"`
	Status     string `json:"status"`
}
