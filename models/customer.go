package models

import "time"

// 客服会话状态
const (
	CustomerStatusActive   = "active"
	CustomerStatusResolved = "resolved"
)

// 消息发送方
const (
	SenderCustomer = "customer"
	SenderAdmin    = "admin"
)

// Customer 顾客以及其客服会话状态
// 聊天记录通过 ChatMessage 关联，只追加，永不重排或截断
type Customer struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	Name        string        `json:"name"`
	Email       string        `json:"email" gorm:"index"`
	Phone       string        `json:"phone" gorm:"index"`
	LastOrderID *uint         `json:"last_order_id"`
	Status      string        `json:"status" gorm:"default:'active'"` // active, resolved
	UnreadCount int           `json:"unread_count" gorm:"default:0"`  // 管理员未读的顾客消息数
	LastActive  time.Time     `json:"last_active"`
	Chats       []ChatMessage `json:"chats,omitempty" gorm:"foreignKey:CustomerID"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ChatMessage 客服消息，追加写入
// id 和 sender 写入后不可变，read 只允许 false -> true（批量标记）
type ChatMessage struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	CustomerID uint      `json:"customer_id" gorm:"index;not null"`
	Sender     string    `json:"sender" gorm:"size:16;not null"` // customer, admin
	AdminID    *uint     `json:"admin_id,omitempty"`             // sender=admin 时记录
	Text       string    `json:"text" gorm:"type:text"`
	Read       bool      `json:"read" gorm:"default:false"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}
