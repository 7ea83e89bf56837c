package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Store represents the canonical tenant model.
type Store struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name          string          `gorm:"column:name;not null"`
	ShopName      string          `gorm:"column:shop_name;not null;default:''"`
	AccessToken   string          `gorm:"column:access_token;not null;default:''"`
	Currency      string          `gorm:"column:currency;not null;default:''"`
	LastSyncAt    *time.Time      `gorm:"column:last_sync_at"`
	Syncing       bool            `gorm:"column:syncing;not null;default:false"`
	SyncStartedAt *time.Time      `gorm:"column:sync_started_at"`
	NetSalesGoal  decimal.Decimal `gorm:"column:net_sales_goal;type:numeric(14,2);not null;default:0"`
	AdSpendGoal   decimal.Decimal `gorm:"column:ad_spend_goal;type:numeric(14,2);not null;default:0"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Store) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// Connected reports whether the store carries usable platform credentials.
func (s Store) Connected() bool {
	return strings.TrimSpace(s.ShopName) != "" && strings.TrimSpace(s.AccessToken) != ""
}
