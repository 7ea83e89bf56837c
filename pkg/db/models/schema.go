package models

import "gorm.io/gorm"

// All lists every persisted model in dependency order.
func All() []any {
	return []any{
		&Store{},
		&Product{},
		&Variant{},
		&Order{},
		&LineItem{},
		&CustomerOrderHistory{},
		&Metric{},
	}
}

// AutoMigrate creates or updates the schema through GORM. Used for sqlite runs,
// Postgres environments go through the goose migrations instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
