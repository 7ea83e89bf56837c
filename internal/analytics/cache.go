package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storepulse-backend/pkg/logger"
	"github.com/angelmondragon/storepulse-backend/pkg/redis"
)

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	MetricsVersionKey(storeID string) string
	MetricsCacheKey(storeID string, version int64, view string) string
}

// Cache memoizes dashboard reads per store. Entries are addressed by a per-store
// version, so invalidation is a single INCR and stale entries expire by TTL.
type Cache struct {
	store cacheStore
	ttl   time.Duration
	logg  *logger.Logger
}

func NewCache(store cacheStore, ttl time.Duration, logg *logger.Logger) *Cache {
	return &Cache{store: store, ttl: ttl, logg: logg}
}

// Invalidate drops every cached view of the store.
func (c *Cache) Invalidate(ctx context.Context, storeID uuid.UUID) error {
	if c == nil || c.store == nil {
		return nil
	}
	_, err := c.store.Incr(ctx, c.store.MetricsVersionKey(storeID.String()))
	return err
}

// load fills out from the cache. Cache errors are logged and treated as misses.
func (c *Cache) load(ctx context.Context, storeID uuid.UUID, view string, out any) bool {
	if c == nil || c.store == nil {
		return false
	}
	key, err := c.key(ctx, storeID, view)
	if err != nil {
		c.warn(ctx, "metrics cache version lookup failed", err)
		return false
	}
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn(ctx, "metrics cache read failed", err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		c.warn(ctx, "metrics cache entry corrupt", err)
		return false
	}
	return true
}

func (c *Cache) save(ctx context.Context, storeID uuid.UUID, view string, value any) {
	if c == nil || c.store == nil {
		return
	}
	key, err := c.key(ctx, storeID, view)
	if err != nil {
		c.warn(ctx, "metrics cache version lookup failed", err)
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		c.warn(ctx, "metrics cache encode failed", err)
		return
	}
	if err := c.store.Set(ctx, key, string(payload), c.ttl); err != nil {
		c.warn(ctx, "metrics cache write failed", err)
	}
}

func (c *Cache) key(ctx context.Context, storeID uuid.UUID, view string) (string, error) {
	id := storeID.String()
	version := int64(0)
	raw, err := c.store.Get(ctx, c.store.MetricsVersionKey(id))
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return "", err
	default:
		version, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return "", err
		}
	}
	return c.store.MetricsCacheKey(id, version, view), nil
}

func (c *Cache) warn(ctx context.Context, msg string, err error) {
	if c.logg == nil {
		return
	}
	c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), msg)
}
