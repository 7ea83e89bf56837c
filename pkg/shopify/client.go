package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
)

const (
	accessTokenHeader = "X-Shopify-Access-Token"
	defaultAPIVersion = "2024-01"
	defaultPageSize   = 250
	maxPageSize       = 250
	maxRetryAfter     = 10 * time.Second
	errorBodyLimit    = 2048
)

var (
	errShopNameRequired    = errors.New("shopify shop name is required")
	errAccessTokenRequired = errors.New("shopify access token is required")
)

// Feed is the paginated read surface consumed by the ingestion engines.
type Feed interface {
	ListOrders(ctx context.Context, query OrdersQuery) (*OrdersPage, error)
	ListProducts(ctx context.Context, query ProductsQuery) (*ProductsPage, error)
}

// ClientParams configure a single-shop Admin API client.
type ClientParams struct {
	ShopName    string
	AccessToken string
	APIVersion  string
	// BaseURL overrides https://{shop}.myshopify.com/admin/api/{version}.
	BaseURL        string
	HTTPClient     *http.Client
	Limiter        *rate.Limiter
	MaxRetries     uint64
	RetryBaseDelay time.Duration
	Logger         *logger.Logger
}

// Client reads orders and products for one shop.
type Client struct {
	baseURL     string
	shopName    string
	accessToken string
	http        *http.Client
	limiter     *rate.Limiter
	maxRetries  uint64
	retryBase   time.Duration
	logger      *logger.Logger
}

// NewClient validates credentials and builds the client.
func NewClient(params ClientParams) (*Client, error) {
	shop := NormalizeShopName(params.ShopName)
	if shop == "" {
		return nil, errShopNameRequired
	}
	token := strings.TrimSpace(params.AccessToken)
	if token == "" {
		return nil, errAccessTokenRequired
	}

	version := strings.TrimSpace(params.APIVersion)
	if version == "" {
		version = defaultAPIVersion
	}
	baseURL := strings.TrimRight(strings.TrimSpace(params.BaseURL), "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.myshopify.com/admin/api/%s", shop, version)
	}

	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	limiter := params.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	retryBase := params.RetryBaseDelay
	if retryBase <= 0 {
		retryBase = 500 * time.Millisecond
	}

	return &Client{
		baseURL:     baseURL,
		shopName:    shop,
		accessToken: token,
		http:        httpClient,
		limiter:     limiter,
		maxRetries:  params.MaxRetries,
		retryBase:   retryBase,
		logger:      params.Logger,
	}, nil
}

// ShopName returns the normalized shop handle.
func (c *Client) ShopName() string {
	if c == nil {
		return ""
	}
	return c.shopName
}

// ListOrders returns one page of orders created inside the query window, oldest first.
func (c *Client) ListOrders(ctx context.Context, query OrdersQuery) (*OrdersPage, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(normalizeLimit(query.Limit)))
	if query.PageInfo != "" {
		params.Set("page_info", query.PageInfo)
	} else {
		params.Set("status", "any")
		params.Set("order", "created_at asc")
		if !query.CreatedAtMin.IsZero() {
			params.Set("created_at_min", query.CreatedAtMin.UTC().Format(time.RFC3339))
		}
		if !query.CreatedAtMax.IsZero() {
			params.Set("created_at_max", query.CreatedAtMax.UTC().Format(time.RFC3339))
		}
	}

	var body struct {
		Orders []Order `json:"orders"`
	}
	next, err := c.get(ctx, "list_orders", "orders.json", params, &body)
	if err != nil {
		return nil, err
	}
	return &OrdersPage{Orders: body.Orders, NextPageInfo: next}, nil
}

// ListProducts returns one page of products with their variants.
func (c *Client) ListProducts(ctx context.Context, query ProductsQuery) (*ProductsPage, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(normalizeLimit(query.Limit)))
	if query.PageInfo != "" {
		params.Set("page_info", query.PageInfo)
	} else {
		if !query.UpdatedAtMin.IsZero() {
			params.Set("updated_at_min", query.UpdatedAtMin.UTC().Format(time.RFC3339))
		}
		if !query.UpdatedAtMax.IsZero() {
			params.Set("updated_at_max", query.UpdatedAtMax.UTC().Format(time.RFC3339))
		}
	}

	var body struct {
		Products []Product `json:"products"`
	}
	next, err := c.get(ctx, "list_products", "products.json", params, &body)
	if err != nil {
		return nil, err
	}
	return &ProductsPage{Products: body.Products, NextPageInfo: next}, nil
}

func (c *Client) get(ctx context.Context, op, resource string, params url.Values, out any) (string, error) {
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, resource, params.Encode())
	c.log(ctx, "request", op, map[string]any{"page_info": params.Get("page_info"), "limit": params.Get("limit")})

	backoff := retry.NewExponential(c.retryBase)
	backoff = retry.WithJitterPercent(10, backoff)
	backoff = retry.WithMaxRetries(c.maxRetries, backoff)

	attempt := 0
	var next string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "shopify rate limiter")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build shopify request")
		}
		req.Header.Set(accessTokenHeader, c.accessToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log(ctx, "error", op, map[string]any{"error": err.Error(), "attempt": attempt})
			return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("shopify %s failed", op)))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusBadRequest {
			apiErr := c.mapStatusError(resp, op)
			c.log(ctx, "error", op, map[string]any{"error": apiErr.Error(), "status": resp.StatusCode, "attempt": attempt})
			if !isTransient(resp.StatusCode) {
				return apiErr
			}
			if resp.StatusCode == http.StatusTooManyRequests {
				if err := sleepRetryAfter(ctx, resp.Header.Get("Retry-After")); err != nil {
					return err
				}
			}
			return retry.RetryableError(apiErr)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode shopify %s response", op))
		}
		next = nextPageInfo(resp.Header.Get("Link"))
		return nil
	})
	if err != nil {
		return "", err
	}

	c.log(ctx, "response", op, map[string]any{"has_next": next != "", "attempts": attempt})
	return next, nil
}

func (c *Client) mapStatusError(resp *http.Response, op string) *pkgerrors.Error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	return pkgerrors.Wrap(domainCodeForStatus(resp.StatusCode), cause, fmt.Sprintf("shopify %s failed", op)).
		WithDetails(map[string]any{"status": resp.StatusCode})
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
		"shop":      c.shopName,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Warn(ctx, fmt.Sprintf("shopify %s", op))
	default:
		c.logger.Debug(ctx, fmt.Sprintf("shopify %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "email", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func isTransient(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.CodeValidation
	default:
		return pkgerrors.CodeDependency
	}
}

func sleepRetryAfter(ctx context.Context, header string) error {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(header), 64)
	if err != nil || seconds <= 0 {
		return nil
	}
	wait := time.Duration(seconds * float64(time.Second))
	if wait > maxRetryAfter {
		wait = maxRetryAfter
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

// NormalizeShopName reduces "https://acme.myshopify.com/" style input to the shop handle.
func NormalizeShopName(name string) string {
	shop := strings.ToLower(strings.TrimSpace(name))
	shop = strings.TrimPrefix(shop, "https://")
	shop = strings.TrimPrefix(shop, "http://")
	shop = strings.TrimSuffix(shop, "/")
	shop = strings.TrimSuffix(shop, ".myshopify.com")
	return shop
}
