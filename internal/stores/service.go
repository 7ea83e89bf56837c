package stores

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storepulse-backend/internal/repo"
	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
	"github.com/angelmondragon/storepulse-backend/pkg/shopify"
)

type storeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	UpdateCredentials(ctx context.Context, id uuid.UUID, shopName, accessToken string) error
	UpdateGoals(ctx context.Context, id uuid.UUID, netSales, adSpend decimal.Decimal) error
	Disconnect(ctx context.Context, id uuid.UUID) (bool, error)
}

// cacheInvalidator drops cached dashboard reads for a store.
type cacheInvalidator interface {
	Invalidate(ctx context.Context, storeID uuid.UUID) error
}

// Service exposes store operations.
type Service interface {
	Get(ctx context.Context, storeID uuid.UUID) (*StoreDTO, error)
	Connect(ctx context.Context, storeID uuid.UUID, input ConnectInput) (*StoreDTO, error)
	Disconnect(ctx context.Context, storeID uuid.UUID) error
	UpdateGoals(ctx context.Context, storeID uuid.UUID, input GoalsInput) (*StoreDTO, error)
}

// ConnectInput carries credentials handed over by the OAuth collaborator.
type ConnectInput struct {
	ShopName    string
	AccessToken string
}

// GoalsInput captures the dashboard targets.
type GoalsInput struct {
	NetSales decimal.Decimal
	AdSpend  decimal.Decimal
}

type tokenSealer interface {
	Seal(plaintext string) (string, error)
}

type service struct {
	repo   storeRepository
	cache  cacheInvalidator
	sealer tokenSealer
	logger *logger.Logger
}

// Option customizes the store service.
type Option func(*service)

// WithTokenSealer encrypts access tokens before they are written.
func WithTokenSealer(sealer tokenSealer) Option {
	return func(s *service) {
		s.sealer = sealer
	}
}

// NewService builds a store service. cache may be nil.
func NewService(repo storeRepository, cache cacheInvalidator, logg *logger.Logger, opts ...Option) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	s := &service{repo: repo, cache: cache, logger: logg}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *service) Get(ctx context.Context, storeID uuid.UUID) (*StoreDTO, error) {
	store, err := s.load(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return FromModel(store), nil
}

func (s *service) Connect(ctx context.Context, storeID uuid.UUID, input ConnectInput) (*StoreDTO, error) {
	shop := shopify.NormalizeShopName(input.ShopName)
	token := strings.TrimSpace(input.AccessToken)
	if shop == "" || token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop name and access token are required")
	}

	store, err := s.load(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store.Syncing {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "store is currently syncing")
	}
	if store.Connected() && !strings.EqualFold(shopify.NormalizeShopName(store.ShopName), shop) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "store is connected to another shop; disconnect first").
			WithDetails(map[string]any{"shop_name": store.ShopName})
	}

	if s.sealer != nil {
		if token, err = s.sealer.Seal(token); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seal access token")
		}
	}
	if err := s.repo.UpdateCredentials(ctx, storeID, shop, token); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store credentials")
	}
	return s.Get(ctx, storeID)
}

func (s *service) Disconnect(ctx context.Context, storeID uuid.UUID) error {
	if _, err := s.load(ctx, storeID); err != nil {
		return err
	}
	ok, err := s.repo.Disconnect(ctx, storeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "disconnect store")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "store is currently syncing")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, storeID); err != nil && s.logger != nil {
			s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "stores.disconnect.cache_invalidate_failed")
		}
	}
	if s.logger != nil {
		s.logger.Info(s.logger.WithStoreID(ctx, storeID.String()), "stores.disconnected")
	}
	return nil
}

func (s *service) UpdateGoals(ctx context.Context, storeID uuid.UUID, input GoalsInput) (*StoreDTO, error) {
	if input.NetSales.IsNegative() || input.AdSpend.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "goals must not be negative")
	}
	if _, err := s.load(ctx, storeID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateGoals(ctx, storeID, input.NetSales.Round(2), input.AdSpend.Round(2)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store goals")
	}
	return s.Get(ctx, storeID)
}

func (s *service) load(ctx context.Context, storeID uuid.UUID) (*models.Store, error) {
	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}
