package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storepulse-backend/pkg/enums"
)

// Metric is one cell of the daily fact table. Absent rows read as zero.
type Metric struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey"`
	StoreID     uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_metrics_store_date_type,priority:1"`
	Date        time.Time        `gorm:"column:date;type:date;not null;uniqueIndex:idx_metrics_store_date_type,priority:2"`
	MetricType  enums.MetricType `gorm:"column:metric_type;type:varchar(64);not null;uniqueIndex:idx_metrics_store_date_type,priority:3"`
	Value       decimal.Decimal  `gorm:"column:value;type:numeric(20,4);not null"`
	Description string           `gorm:"column:description;not null;default:''"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *Metric) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
