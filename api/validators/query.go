package validators

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
)

// timeLayouts are tried in order; date-only values resolve to UTC midnight.
var timeLayouts = []string{"2006-01-02", time.RFC3339Nano}

func queryValue(r *http.Request, key string) (string, bool) {
	values, ok := r.URL.Query()[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	raw := strings.TrimSpace(values[0])
	return raw, raw != ""
}

func invalidQuery(key, msg string, extra map[string]any) error {
	details := map[string]any{"field": key}
	for k, v := range extra {
		details[k] = v
	}
	return pkgerrors.Errorf(pkgerrors.CodeValidation, "%s %s", key, msg).WithDetails(details)
}

// ParseQueryInt reads key as an integer within [min, max], falling back to
// defaultVal when the parameter is absent or blank.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw, ok := queryValue(r, key)
	if !ok {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidQuery(key, "must be an integer", nil)
	}
	if value < min || value > max {
		return 0, invalidQuery(key, "is out of range", map[string]any{"min": min, "max": max})
	}
	return value, nil
}

// ParseQueryTime returns the parameter in UTC and whether it was present.
func ParseQueryTime(r *http.Request, key string) (time.Time, bool, error) {
	raw, ok := queryValue(r, key)
	if !ok {
		return time.Time{}, false, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true, nil
		}
	}
	return time.Time{}, false, invalidQuery(key, "must be a date (YYYY-MM-DD) or RFC 3339 timestamp", nil)
}
