package models

import "gorm.io/gorm"

func AutoMigrateAll(db *gorm.DB) error {
	err := db.AutoMigrate(
		&User{},
		&Customer{},
		&ChatMessage{},
		&Table{},
		&Category{},
		&MenuItem{},
		&Order{},
		&OrderItem{},
		&Payment{},
	)
	if err != nil {
		return err
	}
	return nil
}
