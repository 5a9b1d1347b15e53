package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lifeboard/lifeboard/internal/auth"
)

// TokenParser verifies an access token and returns its claims.
type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

// RequireAuth validates a bearer token and populates AuthContext. A missing
// token is 401; a token that fails verification is 403.
//
// Browsers cannot set headers on WebSocket upgrades, so the token may also be
// passed as the access_token query parameter.
func RequireAuth(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "access token required")
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				writeError(w, http.StatusForbidden, "invalid or expired token")
				return
			}

			ctx := auth.WithAuth(r.Context(), auth.AuthContext{
				UserID: claims.UserID,
				Email:  claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
