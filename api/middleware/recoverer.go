package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/angelmondragon/storepulse-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storepulse-backend/pkg/errors"
	"github.com/angelmondragon/storepulse-backend/pkg/logger"
)

// Recoverer turns a handler panic into a 500 envelope. When the handler had
// already started the response only the log entry is written.
// http.ErrAbortHandler is re-raised for net/http to handle.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}
				ctx := logg.WithFields(r.Context(), map[string]any{
					"method": r.Method,
					"path":   r.URL.Path,
				})
				err := fmt.Errorf("panic: %v", v)
				logg.Error(ctx, "panic.recovered", err)
				if rec.status != 0 {
					return
				}
				responses.WriteError(ctx, nil, rec, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "handler panicked"))
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
