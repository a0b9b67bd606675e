package models

import "time"

// 餐桌状态
const (
	TableStatusFree     = "free"
	TableStatusOccupied = "occupied"
)

// Table 餐桌
type Table struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Number    int       `json:"number" gorm:"uniqueIndex"`
	Capacity  int       `json:"capacity"`
	Status    string    `json:"status" gorm:"default:'free'"` // free, occupied
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
