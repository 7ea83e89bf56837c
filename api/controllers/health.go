package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/storepulse-backend/api/responses"
	"github.com/angelmondragon/storepulse-backend/pkg/config"
	"github.com/angelmondragon/storepulse-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
)

const readyTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-StorePulse-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency and reports which one failed.
func HealthReady(cfg *config.Config, logg *logger.Logger, dependencies map[string]db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-StorePulse-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := make(map[string]string, len(dependencies))
		failed := false
		for name, pinger := range dependencies {
			if pinger == nil {
				continue
			}
			if err := pinger.Ping(ctx); err != nil {
				checks[name] = "unavailable"
				failed = true
				continue
			}
			checks[name] = "ok"
		}

		if failed {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
