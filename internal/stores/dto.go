package stores

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
)

// StoreDTO exposes safe tenant data in API responses. The access token never leaves the service.
type StoreDTO struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	ShopName      string     `json:"shop_name"`
	Connected     bool       `json:"connected"`
	Synced        bool       `json:"synced"`
	Syncing       bool       `json:"syncing"`
	SyncStartedAt *time.Time `json:"sync_started_at,omitempty"`
	LastSyncAt    *time.Time `json:"last_sync_at,omitempty"`
	Currency      string     `json:"currency"`
	Goals         GoalsDTO   `json:"goals"`
}

// GoalsDTO carries the dashboard targets.
type GoalsDTO struct {
	NetSales decimal.Decimal `json:"net_sales"`
	AdSpend  decimal.Decimal `json:"ad_spend"`
}

// FromModel maps the persisted store into a DTO.
func FromModel(m *models.Store) *StoreDTO {
	if m == nil {
		return nil
	}
	return &StoreDTO{
		ID:            m.ID,
		Name:          m.Name,
		ShopName:      m.ShopName,
		Connected:     m.Connected(),
		Synced:        m.LastSyncAt != nil,
		Syncing:       m.Syncing,
		SyncStartedAt: m.SyncStartedAt,
		LastSyncAt:    m.LastSyncAt,
		Currency:      m.Currency,
		Goals: GoalsDTO{
			NetSales: m.NetSalesGoal,
			AdSpend:  m.AdSpendGoal,
		},
	}
}
