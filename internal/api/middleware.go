// Package api implements the site's JSON API using chi.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// AuthConfig selects how admin requests are authenticated.
type AuthConfig struct {
	Enabled bool
	// Token is compared in constant time. TokenHash, when set, is a bcrypt
	// hash of the token and takes precedence.
	Token     string
	TokenHash string
}

func (c AuthConfig) check(presented string) bool {
	if presented == "" {
		return false
	}
	if c.TokenHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(c.TokenHash), []byte(presented)) == nil
	}
	return c.Token != "" && subtle.ConstantTimeCompare([]byte(presented), []byte(c.Token)) == 1
}

// AuthMiddleware returns middleware that validates a Bearer token.
// If cfg.Enabled is false, all requests pass through.
func AuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || !cfg.check(strings.TrimPrefix(auth, "Bearer ")) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="folio"`)
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
