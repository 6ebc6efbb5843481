package api

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"strings"

	"github.com/charliek/netscope/internal/domain"
)

// loopbackHosts are the hostnames a browser origin may use to reach the API
var loopbackHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
}

// isLocalhostOrigin reports whether origin is an http(s) origin on a
// loopback host, with or without a port.
func isLocalhostOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	if u.Path != "" || u.RawQuery != "" || u.User != nil {
		return false
	}
	return loopbackHosts[u.Hostname()]
}

// localCORS allows cross-origin calls from pages served on localhost only.
// Preflight requests are answered here and never reach the router.
func localCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); isLocalhostOrigin(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireToken rejects requests that don't carry "Authorization: Bearer <token>".
// The scheme is case-sensitive.
func requireToken(token string) func(http.Handler) http.Handler {
	expected := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, provided, ok := strings.Cut(header, " ")

			switch {
			case header == "":
				unauthorized(w, "missing authorization header")
			case !ok || scheme != "Bearer":
				unauthorized(w, "invalid authorization header format")
			case subtle.ConstantTimeCompare([]byte(provided), expected) != 1:
				unauthorized(w, "invalid token")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: message, Code: domain.ErrCodeUnauthorized})
}
