package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"kycdesk/pkg/requestcontext"
)

// TokenClaims is what the admin token validator hands back.
type TokenClaims struct {
	UserID string
	Role   string
}

// TokenValidator validates admin bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*TokenClaims, error)
}

// PermissionChecker decides whether an admin user currently holds a permission.
type PermissionChecker interface {
	Authorize(ctx context.Context, userID, permission string) (bool, error)
}

// RequireAuth validates the bearer token and stores the admin identity in the context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, `{"error":"unauthorized","error_description":"Missing or invalid Authorization header"}`)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, `{"error":"unauthorized","error_description":"Invalid or expired token"}`)
				return
			}

			ctx = requestcontext.WithUserID(ctx, claims.UserID)
			ctx = requestcontext.WithUserRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission admits the request when the admin holds any of permissions.
// Permissions are resolved against the live role table on every request.
func RequirePermission(checker PermissionChecker, logger *slog.Logger, permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := requestcontext.UserID(ctx)
			for _, p := range permissions {
				allowed, err := checker.Authorize(ctx, userID, p)
				if err != nil {
					logger.ErrorContext(ctx, "permission lookup failed",
						"request_id", requestcontext.RequestID(ctx),
						"permission", p,
						"error", err,
					)
					writeJSONError(w, http.StatusInternalServerError, `{"error":"internal_error"}`)
					return
				}
				if allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			logger.WarnContext(ctx, "permission denied",
				"request_id", requestcontext.RequestID(ctx),
				"permissions", permissions,
			)
			writeJSONError(w, http.StatusForbidden, `{"error":"forbidden","error_description":"insufficient permissions"}`)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
