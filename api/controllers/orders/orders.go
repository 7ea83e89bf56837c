package orders

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/storepulse-backend/api/middleware"
	"github.com/angelmondragon/storepulse-backend/api/responses"
	"github.com/angelmondragon/storepulse-backend/api/validators"
	internalorders "github.com/angelmondragon/storepulse-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
	"github.com/angelmondragon/storepulse-backend/pkg/pagination"
)

var timeNowUTC = func() time.Time {
	return time.Now().UTC()
}

// List returns the store's orders newest first, one cursor page at a time.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, ok := middleware.StoreUUIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "store context missing"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		page, err := svc.List(r.Context(), storeID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// Export returns every order in the range with its line items.
func Export(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, ok := middleware.StoreUUIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "store context missing"))
			return
		}

		from, to, err := validators.ParseRange(r, timeNowUTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.Export(r.Context(), storeID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"orders": rows})
	}
}
