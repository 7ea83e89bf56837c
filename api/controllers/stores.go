package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storepulse-backend/api/middleware"
	"github.com/angelmondragon/storepulse-backend/api/responses"
	"github.com/angelmondragon/storepulse-backend/api/validators"
	"github.com/angelmondragon/storepulse-backend/internal/stores"
	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
)

// StoreProfile returns the active store with its sync flags and goals.
func StoreProfile(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, ok := requireStore(w, r, logg)
		if !ok {
			return
		}

		profile, err := svc.Get(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

type connectRequest struct {
	ShopName    string `json:"shop_name" validate:"required,shop_name"`
	AccessToken string `json:"access_token" validate:"required"`
}

// StoreConnect stores the Shopify credentials handed over after OAuth.
func StoreConnect(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, ok := requireStore(w, r, logg)
		if !ok {
			return
		}

		var req connectRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req.ShopName = validators.CleanText(req.ShopName, 255)

		profile, err := svc.Connect(r.Context(), storeID, stores.ConnectInput{
			ShopName:    req.ShopName,
			AccessToken: req.AccessToken,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func StoreDisconnect(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, ok := requireStore(w, r, logg)
		if !ok {
			return
		}
		if err := svc.Disconnect(r.Context(), storeID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "disconnected"})
	}
}

type goalsRequest struct {
	NetSales decimal.Decimal `json:"net_sales" validate:"gte=0"`
	AdSpend  decimal.Decimal `json:"ad_spend" validate:"gte=0"`
}

// StoreGoals replaces the dashboard targets.
func StoreGoals(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, ok := requireStore(w, r, logg)
		if !ok {
			return
		}

		var req goalsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateGoals(r.Context(), storeID, stores.GoalsInput{
			NetSales: req.NetSales,
			AdSpend:  req.AdSpend,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func requireStore(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	storeID, ok := middleware.StoreUUIDFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "store context missing"))
		return uuid.Nil, false
	}
	return storeID, true
}
