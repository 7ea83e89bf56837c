package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storepulse-backend/api/middleware"
	internalorders "github.com/angelmondragon/storepulse-backend/internal/orders"
	"github.com/angelmondragon/storepulse-backend/pkg/pagination"
)

type stubOrdersService struct {
	params   pagination.Params
	from, to time.Time
}

func (s *stubOrdersService) List(_ context.Context, _ uuid.UUID, params pagination.Params) (pagination.Page[internalorders.OrderSummary], error) {
	s.params = params
	return pagination.Page[internalorders.OrderSummary]{
		Items:      []internalorders.OrderSummary{{OrderID: "1001"}},
		NextCursor: "next",
	}, nil
}

func (s *stubOrdersService) Export(_ context.Context, _ uuid.UUID, from, to time.Time) ([]internalorders.ExportedOrder, error) {
	s.from, s.to = from, to
	return []internalorders.ExportedOrder{{OrderID: "1001", Date: "01 Jul 2024"}}, nil
}

func storeRequest(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return req.WithContext(middleware.WithStoreID(req.Context(), uuid.NewString()))
}

func TestListPassesCursorAndLimit(t *testing.T) {
	svc := &stubOrdersService{}
	resp := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, storeRequest("/api/v1/orders?limit=10&cursor=abc"))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, pagination.Params{Limit: 10, Cursor: "abc"}, svc.params)

	var envelope struct {
		Data pagination.Page[internalorders.OrderSummary] `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "next", envelope.Data.NextCursor)
	require.Len(t, envelope.Data.Items, 1)
}

func TestListRejectsLimitOutOfBounds(t *testing.T) {
	resp := httptest.NewRecorder()
	List(&stubOrdersService{}, nil).ServeHTTP(resp, storeRequest("/api/v1/orders?limit=1000"))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestExportUsesRange(t *testing.T) {
	svc := &stubOrdersService{}
	resp := httptest.NewRecorder()
	Export(svc, nil).ServeHTTP(resp, storeRequest("/api/v1/orders/export?from=2024-07-01&to=2024-07-02"))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), svc.from)
	assert.Equal(t, time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC), svc.to)
	assert.Contains(t, resp.Body.String(), `"order_id":"1001"`)
}
