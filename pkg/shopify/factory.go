package shopify

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/angelmondragon/storepulse-backend/pkg/config"
	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
)

// Factory builds per-store clients. Stores pointing at the same shop share one
// limiter so concurrent syncs stay inside the platform's request budget.
type Factory struct {
	cfg    config.ShopifyConfig
	http   *http.Client
	tokens TokenOpener
	logger *logger.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// TokenOpener recovers the plain access token from its stored form.
type TokenOpener interface {
	Open(value string) (string, error)
}

// FactoryOption customizes a Factory.
type FactoryOption func(*Factory)

// WithTokenOpener decrypts stored access tokens before use.
func WithTokenOpener(tokens TokenOpener) FactoryOption {
	return func(f *Factory) {
		f.tokens = tokens
	}
}

func NewFactory(cfg config.ShopifyConfig, logg *logger.Logger, opts ...FactoryOption) *Factory {
	f := &Factory{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logg,
		limiters: map[string]*rate.Limiter{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ForStore returns a feed bound to the store's credentials.
func (f *Factory) ForStore(store models.Store) (Feed, error) {
	if !store.Connected() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "store is not connected to shopify")
	}
	token := store.AccessToken
	if f.tokens != nil {
		opened, err := f.tokens.Open(token)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "stored access token is unreadable")
		}
		token = opened
	}
	shop := NormalizeShopName(store.ShopName)
	client, err := NewClient(ClientParams{
		ShopName:       shop,
		AccessToken:    token,
		APIVersion:     f.cfg.APIVersion,
		BaseURL:        f.cfg.BaseURL,
		HTTPClient:     f.http,
		Limiter:        f.limiterFor(shop),
		MaxRetries:     f.cfg.MaxRetries,
		RetryBaseDelay: f.cfg.RetryBaseDelay,
		Logger:         f.logger,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// PageSize is the configured page size for feed listings.
func (f *Factory) PageSize() int {
	return normalizeLimit(f.cfg.PageSize)
}

func (f *Factory) limiterFor(shop string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limiter, ok := f.limiters[shop]; ok {
		return limiter
	}
	limit := rate.Inf
	if f.cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(f.cfg.RequestsPerSecond)
	}
	burst := f.cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(limit, burst)
	f.limiters[shop] = limiter
	return limiter
}
