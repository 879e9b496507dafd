package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000", // local dev
}

// CORS returns middleware allowing the main domain, every storefront
// subdomain under it, and local development origins.
func CORS(mainDomain string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			for _, allowed := range defaultCORSOrigins {
				if origin == allowed {
					return true
				}
			}
			trimmed := strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
			return trimmed == mainDomain || strings.HasSuffix(trimmed, "."+mainDomain)
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
