// Package middleware provides the HTTP middleware chain: request ids,
// request-scoped logging, prometheus metrics, panic recovery and bearer-token
// authentication.
package middleware

import (
	"encoding/json"
	"net/http"
)

type contextKey string

// writeError writes the standard JSON error envelope. Kept self-contained so
// middleware does not import the handler package.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
