package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var localOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8081",
	"http://localhost:19006",
}

// CORS applies the configured origin allow list. Empty entries are dropped;
// an empty list falls back to the local web and Expo dev servers. A wildcard
// disables credentials, which browsers refuse to combine with "*".
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := cleanOrigins(origins)
	if len(allowed) == 0 {
		allowed = localOrigins
	}
	wildcard := false
	for _, o := range allowed {
		if o == "*" {
			wildcard = true
		}
	}

	return cors.New(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, "Retry-After"},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}).Handler
}

func cleanOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}
