package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// MetricsAuth protects the metrics endpoint with HTTP basic authentication.
// If both username and password are empty the endpoint is left open.
func MetricsAuth(username, password string) func(http.Handler) http.Handler {
	if username == "" && password == "" {
		return func(next http.Handler) http.Handler { return next }
	}
	return chimw.BasicAuth("metrics", map[string]string{username: password})
}
