package analytics

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storepulse-backend/api/middleware"
	"github.com/angelmondragon/storepulse-backend/api/validators"
	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
)

var timeNowUTC = func() time.Time {
	return time.Now().UTC()
}

type rangeRequest struct {
	storeID  uuid.UUID
	from, to time.Time
}

func parseRangeRequest(r *http.Request) (rangeRequest, error) {
	storeID, ok := middleware.StoreUUIDFromContext(r.Context())
	if !ok {
		return rangeRequest{}, pkgerrors.New(pkgerrors.CodeForbidden, "store context missing")
	}
	from, to, err := validators.ParseRange(r, timeNowUTC())
	if err != nil {
		return rangeRequest{}, err
	}
	return rangeRequest{storeID: storeID, from: from, to: to}, nil
}
