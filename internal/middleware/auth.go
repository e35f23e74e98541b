package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"go-med-predict/internal/auth"
	"go-med-predict/internal/model"
)

const unauthorizedMessage = "invalid or missing token"

type authenticator interface {
	Authenticate(ctx context.Context, raw string) (*model.AuthClaims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

type AuthMiddleware struct {
	authenticator authenticator
}

func NewAuthMiddleware(authenticator authenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

// RequireAuth answers every rejection with the same message; the reason
// (missing, malformed, expired, bad_signature, invalid) goes in details.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.authenticator.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			reason := auth.ReasonOf(err)
			if reason == "" {
				slog.Error("authentication failed", "error", err, "path", r.URL.Path)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error", "")
				return
			}
			slog.Warn("token rejected", "reason", reason, "path", r.URL.Path)
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", unauthorizedMessage, string(reason))
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) RequireRoles(allowedRoles ...string) func(http.Handler) http.Handler {
	roleSet := map[string]struct{}{}
	for _, role := range allowedRoles {
		roleSet[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", unauthorizedMessage, string(auth.ReasonMissing))
				return
			}

			if _, exists := roleSet[strings.ToLower(claims.Role)]; !exists {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions", "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*model.AuthClaims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*model.AuthClaims)
	return claims, ok
}

// WithClaims returns a context carrying claims, as RequireAuth would.
func WithClaims(ctx context.Context, claims *model.AuthClaims) context.Context {
	return context.WithValue(ctx, authClaimsContextKey, claims)
}
