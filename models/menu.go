package models

import "time"

// Category 菜单分类，支持二级结构（如 "饮品" -> "热饮"）
type Category struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Name      string     `json:"name" gorm:"uniqueIndex"`
	ParentID  *uint      `json:"parent_id"`
	Sort      int        `json:"sort"`
	Icon      string     `json:"icon"`
	IsActive  bool       `json:"is_active" gorm:"default:true"`
	Parent    *Category  `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Children  []Category `json:"children,omitempty" gorm:"foreignKey:ParentID"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// MenuItem 菜品（含库存）
type MenuItem struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	CategoryID uint      `json:"category_id" gorm:"index"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	Stock      int       `json:"stock" gorm:"default:0"` // 库存数量
	Available  bool      `json:"available" gorm:"default:true"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
