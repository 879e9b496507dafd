package middleware

import (
	"net/http"
	"strings"

	pkgauth "github.com/tallyhq/tally-backend/pkg/auth"
	"github.com/tallyhq/tally-backend/pkg/auth/session"
	"github.com/tallyhq/tally-backend/pkg/config"
)

var passthroughPrefixes = []string{"/api", "/metrics", "/health", "/static", "/storefront"}

// localhost aliases resolve to the dashboard, not a storefront
var mainHostAliases = []string{"localhost", "127.0.0.1"}

// HostRouter dispatches requests by hostname. Requests to the main domain
// pass through (with a login redirect for unauthenticated dashboard paths);
// any other host is a storefront and is rewritten onto the /storefront route
// tree. The host is not checked against the store table here; unknown hosts
// surface as NOT_FOUND from the storefront handler.
func HostRouter(appCfg config.AppConfig, jwtCfg config.JWTConfig, verifier session.AccessSessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if isPassthroughPath(path) {
				next.ServeHTTP(w, r)
				return
			}

			host := stripPort(strings.ToLower(strings.TrimSpace(r.Host)))
			if !isMainHost(host, appCfg.MainDomain) {
				r.URL.Path = storefrontPath(host, path)
				next.ServeHTTP(w, r)
				return
			}

			if strings.HasPrefix(path, "/dashboard") && !hasValidSession(r, jwtCfg, verifier) {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isPassthroughPath(path string) bool {
	for _, prefix := range passthroughPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	// dotted paths are static assets
	return strings.Contains(path, ".")
}

func isMainHost(host, mainDomain string) bool {
	if host == strings.ToLower(mainDomain) {
		return true
	}
	for _, alias := range mainHostAliases {
		if host == alias {
			return true
		}
	}
	return false
}

func storefrontPath(host, path string) string {
	if path == "/" {
		path = ""
	}
	return "/storefront/" + host + path
}

func stripPort(host string) string {
	if i := strings.LastIndex(host, ":"); i != -1 {
		return host[:i]
	}
	return host
}

func hasValidSession(r *http.Request, cfg config.JWTConfig, verifier session.AccessSessionChecker) bool {
	token := bearerToken(r)
	if token == "" {
		if cookie, err := r.Cookie("access_token"); err == nil {
			token = strings.TrimSpace(cookie.Value)
		}
	}
	if token == "" {
		return false
	}

	claims, err := pkgauth.ParseAccessToken(cfg, token)
	if err != nil || claims.ID == "" {
		return false
	}
	if verifier != nil {
		ok, err := verifier.HasSession(r.Context(), claims.ID)
		if err != nil || !ok {
			return false
		}
	}
	return true
}
