package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LineItem struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	StoreID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_line_items_store_external,priority:1;index:idx_line_items_store_variant,priority:1"`
	ExternalID        string          `gorm:"column:external_id;not null;uniqueIndex:idx_line_items_store_external,priority:2"`
	ProductID         string          `gorm:"column:product_id;not null;default:''"`
	VariantID         string          `gorm:"column:variant_id;not null;default:'';index:idx_line_items_store_variant,priority:2"`
	Name              string          `gorm:"column:name;not null"`
	Quantity          int             `gorm:"column:quantity;not null"`
	Paid              decimal.Decimal `gorm:"column:paid;type:numeric(14,2);not null"`
	Discount          decimal.Decimal `gorm:"column:discount;type:numeric(14,2);not null"`
	ProductCost       decimal.Decimal `gorm:"column:product_cost;type:numeric(14,2);not null"`
	PreTaxGrossProfit decimal.Decimal `gorm:"column:pre_tax_gross_profit;type:numeric(14,2);not null"`
	PreTaxGrossMargin decimal.Decimal `gorm:"column:pre_tax_gross_margin;type:numeric(6,2);not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (l *LineItem) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
