package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
)

type goalsBody struct {
	NetSalesGoal float64 `json:"net_sales_goal" validate:"gte=0"`
	ShopName     string  `json:"shop_name" validate:"required"`
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"net_sales_goal":-1}`))
	var body goalsBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details := typed.Details().(map[string]string)
	assert.Equal(t, "is required", details["shop_name"])
	assert.Equal(t, "must be at least 0", details["net_sales_goal"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"shop_name":"acme","extra":true}`))
	var body goalsBody
	err := DecodeJSONBody(req, &body)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryTime(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?from=2024-06-01&to=2024-06-03T10:00:00-05:00&bad=yesterday", nil)

	from, ok, err := ParseQueryTime(req, "from")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), from)

	to, ok, err := ParseQueryTime(req, "to")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 15, to.Hour())

	_, ok, err = ParseQueryTime(req, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = ParseQueryTime(req, "bad")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&n=x", nil)
	_, err := ParseQueryInt(req, "limit", 50, 1, 200)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = ParseQueryInt(req, "n", 50, 1, 200)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	v, err := ParseQueryInt(req, "absent", 50, 1, 200)
	require.NoError(t, err)
	assert.Equal(t, 50, v)
}

func TestParseRangePreset(t *testing.T) {
	now := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)
	req := httptest.NewRequest(http.MethodGet, "/?preset=7d", nil)
	from, to, err := ParseRange(req, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 9, 10, 0, 0, 0, time.UTC), from)
	assert.Equal(t, now, to)

	from, _, err = ParseRange(httptest.NewRequest(http.MethodGet, "/", nil), now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 16, 10, 0, 0, 0, time.UTC), from)
}

func TestParseRangeExplicit(t *testing.T) {
	now := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)
	req := httptest.NewRequest(http.MethodGet, "/?from=2024-06-01&to=2024-06-30", nil)
	from, to, err := ParseRange(req, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), to)

	for _, query := range []string{"?from=2024-06-01", "?from=2024-06-30&to=2024-06-01", "?preset=1y"} {
		_, _, err := ParseRange(httptest.NewRequest(http.MethodGet, "/"+query, nil), now)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), query)
	}
}

type connectBody struct {
	ShopName string          `json:"shop_name" validate:"required,shop_name"`
	Goal     decimal.Decimal `json:"goal" validate:"gte=0"`
}

func TestDecodeJSONBodyShopNameAndDecimal(t *testing.T) {
	for _, shop := range []string{"acme", "Acme-Store.myshopify.com", "https://acme.myshopify.com/"} {
		req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"shop_name":"`+shop+`","goal":"10.5"}`))
		var body connectBody
		require.NoError(t, DecodeJSONBody(req, &body), shop)
		assert.True(t, decimal.RequireFromString("10.5").Equal(body.Goal))
	}

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"shop_name":"bad shop!","goal":-2}`))
	var body connectBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details := typed.Details().(map[string]string)
	assert.Equal(t, "must be a shop name or myshopify.com domain", details["shop_name"])
	assert.Equal(t, "must be at least 0", details["goal"])
}

func TestDecodeJSONBodyRejectsEmptyOversizedAndTrailing(t *testing.T) {
	cases := map[string]string{
		"empty":    "",
		"trailing": `{"shop_name":"acme"} {"shop_name":"other"}`,
		"oversize": `{"shop_name":"` + strings.Repeat("a", MaxBodyBytes) + `"}`,
		"type":     `{"shop_name":42}`,
	}
	for name, payload := range cases {
		req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(payload))
		var body goalsBody
		err := DecodeJSONBody(req, &body)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), name)
	}

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(""))
	var body goalsBody
	assert.Equal(t, "request body required", pkgerrors.As(DecodeJSONBody(req, &body)).Message())
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "acme", CleanText("  acme\t\n", 0))
	assert.Equal(t, "acmeshop", CleanText("acme\x00shop", 0))
	assert.Equal(t, "héll", CleanText("héllo", 4))
	assert.Equal(t, "", CleanText("   ", 10))
}
