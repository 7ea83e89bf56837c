package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
	"github.com/angelmondragon/storepulse-backend/pkg/pagination"
)

// Service exposes the read side of stored orders.
type Service interface {
	List(ctx context.Context, storeID uuid.UUID, params pagination.Params) (pagination.Page[OrderSummary], error)
	Export(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]ExportedOrder, error)
}

type service struct {
	repo     *Repository
	exporter *Exporter
}

func NewService(repo *Repository) Service {
	return &service{repo: repo, exporter: NewExporter(repo)}
}

func (s *service) List(ctx context.Context, storeID uuid.UUID, params pagination.Params) (pagination.Page[OrderSummary], error) {
	page, err := s.repo.ListPage(ctx, storeID, params)
	switch {
	case errors.Is(err, pagination.ErrInvalidCursor):
		return pagination.Page[OrderSummary]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	case err != nil:
		return pagination.Page[OrderSummary]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return pagination.Map(page, summaryFromModel), nil
}

func (s *service) Export(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]ExportedOrder, error) {
	if to.Before(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must not be before start date")
	}
	rows, err := s.exporter.Export(ctx, storeID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "export orders")
	}
	return rows, nil
}
