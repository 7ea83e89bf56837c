package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storepulse-backend/api/middleware"
	"github.com/angelmondragon/storepulse-backend/internal/stores"
	"github.com/angelmondragon/storepulse-backend/pkg/config"
	"github.com/angelmondragon/storepulse-backend/pkg/db"
	"github.com/angelmondragon/storepulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
)

type stubStoreService struct {
	connect stores.ConnectInput
	goals   stores.GoalsInput
	err     error
}

func (s *stubStoreService) Get(_ context.Context, storeID uuid.UUID) (*stores.StoreDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &stores.StoreDTO{ID: storeID, Name: "Demo"}, nil
}

func (s *stubStoreService) Connect(_ context.Context, storeID uuid.UUID, input stores.ConnectInput) (*stores.StoreDTO, error) {
	s.connect = input
	return &stores.StoreDTO{ID: storeID, ShopName: input.ShopName, Connected: true}, nil
}

func (s *stubStoreService) Disconnect(context.Context, uuid.UUID) error {
	return s.err
}

func (s *stubStoreService) UpdateGoals(_ context.Context, storeID uuid.UUID, input stores.GoalsInput) (*stores.StoreDTO, error) {
	s.goals = input
	return &stores.StoreDTO{ID: storeID}, nil
}

type stubStarter struct {
	storeID uuid.UUID
	mode    enums.SyncMode
	err     error
}

func (s *stubStarter) Start(_ context.Context, storeID uuid.UUID, mode enums.SyncMode) error {
	s.storeID, s.mode = storeID, mode
	return s.err
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func withStore(req *http.Request, storeID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithStoreID(req.Context(), storeID.String()))
}

func TestStoreProfile(t *testing.T) {
	storeID := uuid.New()
	resp := httptest.NewRecorder()
	StoreProfile(&stubStoreService{}, nil).ServeHTTP(resp, withStore(httptest.NewRequest(http.MethodGet, "/api/v1/store", nil), storeID))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), storeID.String())

	resp = httptest.NewRecorder()
	StoreProfile(&stubStoreService{err: pkgerrors.New(pkgerrors.CodeNotFound, "store not found")}, nil).
		ServeHTTP(resp, withStore(httptest.NewRequest(http.MethodGet, "/api/v1/store", nil), storeID))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestStoreConnectValidatesBody(t *testing.T) {
	svc := &stubStoreService{}
	storeID := uuid.New()

	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/store/credentials", strings.NewReader(`{"shop_name":"demo-shop"}`))
	StoreConnect(svc, nil).ServeHTTP(resp, withStore(req, storeID))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/v1/store/credentials", strings.NewReader(`{"shop_name":"demo-shop","access_token":"shpat_1"}`))
	StoreConnect(svc, nil).ServeHTTP(resp, withStore(req, storeID))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, stores.ConnectInput{ShopName: "demo-shop", AccessToken: "shpat_1"}, svc.connect)
	assert.NotContains(t, resp.Body.String(), "shpat_1")
}

func TestStoreGoals(t *testing.T) {
	svc := &stubStoreService{}
	storeID := uuid.New()

	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/store/goals", strings.NewReader(`{"net_sales":"5000","ad_spend":250.5}`))
	StoreGoals(svc, nil).ServeHTTP(resp, withStore(req, storeID))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, decimal.NewFromInt(5000).Equal(svc.goals.NetSales))
	assert.True(t, decimal.RequireFromString("250.5").Equal(svc.goals.AdSpend))

	resp = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/v1/store/goals", strings.NewReader(`{"net_sales":-1,"ad_spend":0}`))
	StoreGoals(svc, nil).ServeHTTP(resp, withStore(req, storeID))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestStoreDisconnect(t *testing.T) {
	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/store/disconnect", nil)
	StoreDisconnect(&stubStoreService{}, nil).ServeHTTP(resp, withStore(req, uuid.New()))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestTriggerSync(t *testing.T) {
	starter := &stubStarter{}
	storeID := uuid.New()

	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resync", nil)
	TriggerSync(starter, enums.SyncModeIncremental, nil).ServeHTTP(resp, withStore(req, storeID))
	require.Equal(t, http.StatusAccepted, resp.Code)
	assert.Equal(t, storeID, starter.storeID)
	assert.Equal(t, enums.SyncModeIncremental, starter.mode)
}

func TestTriggerSyncConflict(t *testing.T) {
	starter := &stubStarter{err: pkgerrors.New(pkgerrors.CodeConflict, "sync already running")}

	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
	TriggerSync(starter, enums.SyncModeFull, nil).ServeHTTP(resp, withStore(req, uuid.New()))
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestTriggerSyncRequiresStore(t *testing.T) {
	resp := httptest.NewRecorder()
	TriggerSync(&stubStarter{}, enums.SyncModeFull, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	resp := httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]db.Pinger{"db": stubPinger{}, "redis": stubPinger{}}).
		ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "test", resp.Header().Get("X-StorePulse-Env"))

	resp = httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]db.Pinger{"db": stubPinger{}, "redis": stubPinger{err: errors.New("down")}}).
		ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Contains(t, resp.Body.String(), `"redis":"unavailable"`)
}
