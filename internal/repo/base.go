package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storepulse-backend/pkg/db"
)

// maxInParams keeps IN lists well below the postgres bind parameter limit.
const maxInParams = 1000

// Base is embedded by every tenant repository. All tenant tables carry a
// store_id column.
type Base struct {
	db *gorm.DB
}

func NewBase(conn *gorm.DB) Base {
	return Base{db: conn}
}

// DB binds ctx to the connection; a nil ctx returns the raw connection.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// ForStore starts a query restricted to one store's rows.
func (b Base) ForStore(ctx context.Context, storeID uuid.UUID) *gorm.DB {
	return b.DB(ctx).Where("store_id = ?", storeID)
}

// Transaction runs fn in a transaction. Use only tx inside fn: test databases
// hold a single connection.
func (b Base) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return db.WithTx(ctx, b.db, fn)
}

// InChunks calls fn with consecutive slices of ids no longer than the IN limit.
func InChunks[T any](ids []T, fn func(chunk []T) error) error {
	for start := 0; start < len(ids); start += maxInParams {
		end := min(start+maxInParams, len(ids))
		if err := fn(ids[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
