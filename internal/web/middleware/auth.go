package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/subhive-systems/subhive/internal/auth"
	"github.com/subhive-systems/subhive/internal/models"
)

type contextKey string

const adminContextKey contextKey = "admin"

// RequireAuth rejects requests that do not carry a valid bearer session
// token and stores the authenticated admin in the request context.
func RequireAuth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				writeUnauthorized(w)
				return
			}

			admin, err := authService.ValidateSession(r.Context(), token)
			if err != nil {
				writeUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), adminContextKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminFromContext returns the authenticated admin, or nil when the request
// did not pass RequireAuth.
func AdminFromContext(ctx context.Context) *models.Admin {
	admin, _ := ctx.Value(adminContextKey).(*models.Admin)
	return admin
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(headerValue string) string {
	return bearerToken(headerValue)
}

func bearerToken(headerValue string) string {
	headerValue = strings.TrimSpace(headerValue)
	const prefix = "Bearer "
	if !strings.HasPrefix(headerValue, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(headerValue, prefix))
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
