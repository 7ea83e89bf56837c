package routes

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storepulse-backend/internal/catalog"
	"github.com/angelmondragon/storepulse-backend/pkg/enums"
)

type syncLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type syncStarter interface {
	Start(ctx context.Context, storeID uuid.UUID, mode enums.SyncMode) error
}

type productReporter interface {
	Performance(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*catalog.PerformanceReport, error)
}
