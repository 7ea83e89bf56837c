package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storepulse-backend/api/responses"
	"github.com/angelmondragon/storepulse-backend/pkg/enums"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
)

type syncStarter interface {
	Start(ctx context.Context, storeID uuid.UUID, mode enums.SyncMode) error
}

// TriggerSync starts a background sync in the given mode. The store is
// validated and the sync guard taken before the 202 is written.
func TriggerSync(starter syncStarter, mode enums.SyncMode, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, ok := requireStore(w, r, logg)
		if !ok {
			return
		}

		if err := starter.Start(r.Context(), storeID, mode); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{
			"status": "started",
			"mode":   string(mode),
		})
	}
}
