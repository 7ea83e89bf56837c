package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CustomerOrderHistory stores the ascending purchase dates of one customer within a store.
type CustomerOrderHistory struct {
	ID           uuid.UUID                      `gorm:"type:uuid;primaryKey"`
	StoreID      uuid.UUID                      `gorm:"type:uuid;not null;uniqueIndex:idx_customer_histories_store_customer,priority:1"`
	CustomerID   string                         `gorm:"column:customer_id;not null;uniqueIndex:idx_customer_histories_store_customer,priority:2"`
	Dates        datatypes.JSONSlice[time.Time] `gorm:"column:dates;not null"`
	FirstOrderID string                         `gorm:"column:first_order_id;not null"`
	FirstOrderAt time.Time                      `gorm:"column:first_order_at;not null"`
	OrderCount   int                            `gorm:"column:order_count;not null;default:0"`
	CreatedAt    time.Time                      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                      `gorm:"column:updated_at;autoUpdateTime"`
}

func (h *CustomerOrderHistory) BeforeCreate(*gorm.DB) error {
	ensureID(&h.ID)
	return nil
}
