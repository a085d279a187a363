package middleware

import (
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
)

// Recovery recovers from handler panics, reports them and returns a 500.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						"error", err,
						"path", r.URL.Path,
						"request_id", GetRequestID(r.Context()),
					)
					sentry.CurrentHub().Recover(err)
					writeError(w, http.StatusInternalServerError, "internal",
						"An internal error occurred. Please try again later.")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
