package validators

import (
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
)

const defaultPreset = "30d"

// ParseRange reads either an explicit from/to pair or a preset window ending at now.
func ParseRange(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	from, hasFrom, err := ParseQueryTime(r, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, hasTo, err := ParseQueryTime(r, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if hasFrom || hasTo {
		if !hasFrom || !hasTo {
			return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "from and to must be provided together")
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
		}
		return from, to, nil
	}

	days, ok := presetDays(strings.TrimSpace(r.URL.Query().Get("preset")))
	if !ok {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid preset")
	}
	end := now.UTC()
	return end.AddDate(0, 0, -(days - 1)), end, nil
}

func presetDays(value string) (int, bool) {
	if value == "" {
		value = defaultPreset
	}
	switch strings.ToLower(value) {
	case "7d":
		return 7, true
	case "30d":
		return 30, true
	case "90d":
		return 90, true
	default:
		return 0, false
	}
}
