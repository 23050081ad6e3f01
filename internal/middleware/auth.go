package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vds/vds-go/internal/crypto"
)

type contextKey string

const (
	usernameKey contextKey = "username"
	serviceKey  contextKey = "service"
)

// JWTAuth returns middleware that validates a Bearer token from the Authorization header.
func JWTAuth(secret string) func(http.Handler) http.Handler {
	return ServiceOrJWTAuth(secret, "")
}

// ServiceOrJWTAuth behaves like JWTAuth but also admits internal callers
// presenting serviceToken as their bearer. An empty serviceToken disables that path.
func ServiceOrJWTAuth(secret, serviceToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			token, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || token == "" {
				writeJSONError(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			if isServiceToken(token, serviceToken) {
				ctx := context.WithValue(r.Context(), serviceKey, true)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			claims, err := crypto.ValidateToken(token, secret)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isServiceToken(token, serviceToken string) bool {
	return serviceToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(serviceToken)) == 1
}

// UsernameFromContext extracts the authenticated username from the request context.
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok && username != ""
}

// IsServiceCaller reports whether the request was authenticated with the service token.
func IsServiceCaller(ctx context.Context) bool {
	v, _ := ctx.Value(serviceKey).(bool)
	return v
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
