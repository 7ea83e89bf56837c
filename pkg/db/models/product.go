package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product mirrors a platform product; rows are merged on every catalog sync.
type Product struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	StoreID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_products_store_external,priority:1"`
	ExternalID        string     `gorm:"column:external_id;not null;uniqueIndex:idx_products_store_external,priority:2"`
	Title             string     `gorm:"column:title;not null"`
	Handle            string     `gorm:"column:handle;not null;default:''"`
	Vendor            string     `gorm:"column:vendor;not null;default:''"`
	ProductType       string     `gorm:"column:product_type;not null;default:''"`
	Status            string     `gorm:"column:status;not null;default:''"`
	ExternalUpdatedAt *time.Time `gorm:"column:external_updated_at"`
	Variants          []Variant  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

type Variant struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	StoreID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_variants_store_external,priority:1"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ExternalID        string          `gorm:"column:external_id;not null;uniqueIndex:idx_variants_store_external,priority:2"`
	ExternalProductID string          `gorm:"column:external_product_id;not null"`
	Title             string          `gorm:"column:title;not null"`
	SKU               string          `gorm:"column:sku;not null;default:''"`
	Price             decimal.Decimal `gorm:"column:price;type:numeric(14,2);not null"`
	InventoryQuantity int             `gorm:"column:inventory_quantity;not null;default:0"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *Variant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}
