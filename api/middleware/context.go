package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey int

const (
	ctxUserID contextKey = iota
	ctxStoreID
	ctxStoreUUID
	ctxRequestID
)

func valueFrom[T any](ctx context.Context, key contextKey) (T, bool) {
	var zero T
	if ctx == nil {
		return zero, false
	}
	v, ok := ctx.Value(key).(T)
	return v, ok
}

func withValue(ctx context.Context, key contextKey, value any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, value)
}

func UserIDFromContext(ctx context.Context) string {
	id, _ := valueFrom[string](ctx, ctxUserID)
	return id
}

// StoreIDFromContext returns the raw store claim of the access token.
func StoreIDFromContext(ctx context.Context) string {
	id, _ := valueFrom[string](ctx, ctxStoreID)
	return id
}

// StoreUUIDFromContext returns the store resolved by StoreContext, parsing the
// raw claim when the request did not pass through it.
func StoreUUIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if id, ok := valueFrom[uuid.UUID](ctx, ctxStoreUUID); ok {
		return id, true
	}
	id, err := uuid.Parse(StoreIDFromContext(ctx))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := valueFrom[string](ctx, ctxRequestID)
	return id
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return withValue(ctx, ctxUserID, userID)
}

func WithStoreID(ctx context.Context, storeID string) context.Context {
	return withValue(ctx, ctxStoreID, storeID)
}

func withStoreUUID(ctx context.Context, storeID uuid.UUID) context.Context {
	return withValue(ctx, ctxStoreUUID, storeID)
}

func withRequestID(ctx context.Context, requestID string) context.Context {
	return withValue(ctx, ctxRequestID, requestID)
}
