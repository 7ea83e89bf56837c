package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storepulse-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
)

var (
	errStoreMissing   = pkgerrors.New(pkgerrors.CodeForbidden, "store context missing")
	errStoreMalformed = pkgerrors.New(pkgerrors.CodeForbidden, "store context malformed")
)

// StoreContext pins the request to one tenant. Every /api/v1 read and write
// is scoped to the store it resolves.
func StoreContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := resolveStore(r.Context(), logg)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveStore(ctx context.Context, logg *logger.Logger) (context.Context, error) {
	if id, ok := valueFrom[uuid.UUID](ctx, ctxStoreUUID); ok && id != uuid.Nil {
		return ctx, nil
	}
	claim := strings.TrimSpace(StoreIDFromContext(ctx))
	if claim == "" {
		return ctx, errStoreMissing
	}
	id, err := uuid.Parse(claim)
	if err != nil || id == uuid.Nil {
		logg.Warn(logg.WithField(ctx, "store_claim", claim), "store.claim_malformed")
		return ctx, errStoreMalformed
	}
	return withStoreUUID(ctx, id), nil
}
