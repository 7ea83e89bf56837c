package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storepulse-backend/api/responses"
	"github.com/angelmondragon/storepulse-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
)

type tokenParser interface {
	Parse(raw string) (*auth.AccessTokenClaims, error)
}

// bearerToken extracts the credential from an Authorization header. The scheme
// match is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Auth verifies the bearer token and scopes the request to its user and store.
func Auth(tokens tokenParser, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			claims, err := tokens.Parse(token)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			userID, storeID := claims.UserID.String(), claims.StoreID.String()
			ctx = withValue(ctx, ctxUserID, userID)
			ctx = withValue(ctx, ctxStoreID, storeID)
			ctx = withStoreUUID(ctx, claims.StoreID)
			ctx = logg.WithUserID(ctx, userID)
			ctx = logg.WithStoreID(ctx, storeID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
