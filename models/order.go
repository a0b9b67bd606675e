package models

import "time"

// 订单状态
const (
	OrderStatusOpen      = "open"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// 支付状态
const (
	PaymentStatusPaid   = "paid"
	PaymentStatusFailed = "failed"
)

// Order 堂食订单
type Order struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	Number     string      `json:"number" gorm:"uniqueIndex"` // 对外订单号
	TableID    uint        `json:"table_id" gorm:"index"`
	CustomerID *uint       `json:"customer_id,omitempty" gorm:"index"` // 可选：关联支持聊天的顾客
	Status     string      `json:"status" gorm:"default:'open'"`       // open, completed, cancelled
	Total      float64     `json:"total"`
	Items      []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// OrderItem 订单明细
type OrderItem struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	OrderID    uint    `json:"order_id" gorm:"index"`
	MenuItemID uint    `json:"menu_item_id"`
	Name       string  `json:"name"` // 下单时的菜品名快照
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
}

// Payment 支付记录（不含网关对接，只做状态流转）
type Payment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OrderID   uint      `json:"order_id" gorm:"index"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"method"` // cash, card
	Status    string    `json:"status"` // paid, failed
	CreatedAt time.Time `json:"created_at"`
}
