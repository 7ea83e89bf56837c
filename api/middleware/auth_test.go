package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storepulse-backend/pkg/auth"
	"github.com/angelmondragon/storepulse-backend/pkg/config"
)

func testKeys(t *testing.T) *auth.Keys {
	t.Helper()
	keys, err := auth.NewKeys(config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10})
	require.NoError(t, err)
	return keys
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		header string
		token  string
		ok     bool
	}{
		"canonical":  {header: "Bearer abc", token: "abc", ok: true},
		"lowercase":  {header: "bearer   abc ", token: "abc", ok: true},
		"basic":      {header: "Basic abc", ok: false},
		"bare token": {header: "abc", ok: false},
		"empty":      {header: "Bearer ", ok: false},
	}
	for name, tc := range cases {
		token, ok := bearerToken(tc.header)
		assert.Equal(t, tc.ok, ok, name)
		assert.Equal(t, tc.token, token, name)
	}
}

func TestAuthRejectsMissingInvalidAndExpiredTokens(t *testing.T) {
	keys := testKeys(t)
	expired, err := keys.Mint(time.Now().Add(-time.Hour), auth.AccessTokenPayload{UserID: uuid.New(), StoreID: uuid.New()})
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing": "",
		"invalid": "Bearer invalid",
		"expired": "Bearer " + expired,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp := httptest.NewRecorder()
		Auth(keys, nil)(okHandler()).ServeHTTP(resp, req)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, name)
	}
}

func TestAuthSeedsContext(t *testing.T) {
	keys := testKeys(t)
	userID, storeID := uuid.New(), uuid.New()
	token, err := keys.Mint(time.Now(), auth.AccessTokenPayload{UserID: userID, StoreID: storeID})
	require.NoError(t, err)

	var gotUser, gotStore string
	var gotUUID uuid.UUID
	handler := Auth(keys, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotStore = StoreIDFromContext(r.Context())
		gotUUID, _ = StoreUUIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, userID.String(), gotUser)
	assert.Equal(t, storeID.String(), gotStore)
	assert.Equal(t, storeID, gotUUID)
}

func TestStoreContextRequiresStore(t *testing.T) {
	handler := StoreContext(nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithStoreID(req.Context(), uuid.NewString()))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestStoreContextRejectsMalformedClaim(t *testing.T) {
	var got uuid.UUID
	storeID := uuid.New()
	handler := StoreContext(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = StoreUUIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithStoreID(req.Context(), "not-a-store"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithStoreID(req.Context(), " "+storeID.String()+" "))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, storeID, got)
}
