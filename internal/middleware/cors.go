// Package middleware provides reusable HTTP middleware for the dock gate API.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORSHandler returns a middleware that applies CORS headers for the
// dashboards listed in allowedOrigins. Each entry must be a full origin
// (scheme + host, no trailing slash). The operator header is allowed so
// browser dashboards can attribute their actions.
func NewCORSHandler(allowedOrigins []string, actorHeader string) func(http.Handler) http.Handler {
	headers := []string{"Content-Type", "Authorization"}
	if actorHeader != "" {
		headers = append(headers, actorHeader)
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: headers,
		MaxAge:         600,
	})
	return c.Handler
}
