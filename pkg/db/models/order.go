package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is the normalized, create-once copy of a platform order.
type Order struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	StoreID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_orders_store_external,priority:1;index:idx_orders_store_ordered_at,priority:1;index:idx_orders_store_customer,priority:1"`
	ExternalID        string          `gorm:"column:external_id;not null;uniqueIndex:idx_orders_store_external,priority:2"`
	OrderNumber       int64           `gorm:"column:order_number;not null;default:0"`
	OrderedAt         time.Time       `gorm:"column:ordered_at;not null;index:idx_orders_store_ordered_at,priority:2"`
	CustomerName      string          `gorm:"column:customer_name;not null"`
	CustomerID        string          `gorm:"column:customer_id;not null;default:'';index:idx_orders_store_customer,priority:2"`
	Source            string          `gorm:"column:source;not null;default:''"`
	FulfillmentStatus string          `gorm:"column:fulfillment_status;not null"`
	ShippingCountry   string          `gorm:"column:shipping_country;not null"`
	ShippingRegion    string          `gorm:"column:shipping_region;not null"`
	Currency          string          `gorm:"column:currency;not null;default:''"`
	Paid              decimal.Decimal `gorm:"column:paid;type:numeric(14,2);not null"`
	Tax               decimal.Decimal `gorm:"column:tax;type:numeric(14,2);not null"`
	ShippingPaid      decimal.Decimal `gorm:"column:shipping_paid;type:numeric(14,2);not null"`
	Discount          decimal.Decimal `gorm:"column:discount;type:numeric(14,2);not null"`
	Cogs              decimal.Decimal `gorm:"column:cogs;type:numeric(14,2);not null"`
	GrossProfit       decimal.Decimal `gorm:"column:gross_profit;type:numeric(14,2);not null"`
	LineItems         []LineItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// IsGuest reports whether the order has no platform customer attached.
func (o Order) IsGuest() bool {
	return o.CustomerID == ""
}

// ItemCount sums quantities across line items.
func (o Order) ItemCount() int {
	total := 0
	for _, item := range o.LineItems {
		total += item.Quantity
	}
	return total
}
