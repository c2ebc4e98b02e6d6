package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/username/tradefolio/backend/src/logger"
	"github.com/username/tradefolio/backend/src/security"
	"github.com/username/tradefolio/backend/src/storage"
	"github.com/username/tradefolio/backend/src/utils"
)

type contextKey string

const (
	userIDContextKey    contextKey = "userID"
	signedInContextKey  contextKey = "signedIn"
	requestIDContextKey contextKey = "requestID"
)

// GetUserIDFromContext returns the ledger namespace for the request: the
// authenticated user id, or the local namespace for anonymous sessions.
func GetUserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDContextKey).(string); ok && userID != "" {
		return userID
	}
	return storage.LocalUserID
}

// IsSignedIn reports whether the request carried a valid bearer token.
func IsSignedIn(ctx context.Context) bool {
	signedIn, ok := ctx.Value(signedInContextKey).(bool)
	return ok && signedIn
}

// ContextualLoggerMiddleware attaches a request-scoped logger carrying a
// generated request id.
func ContextualLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		ctxLogger := logger.L.With(slog.String("requestID", requestID))

		ctx := logger.ToContext(r.Context(), ctxLogger)
		ctx = context.WithValue(ctx, requestIDContextKey, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthMiddleware resolves the optional bearer token into a user namespace.
// Requests without a token run against the anonymous local ledger; a token
// that is present but invalid is rejected rather than silently downgraded.
func AuthMiddleware(authService *security.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxLogger := logger.FromContext(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				ctx := context.WithValue(r.Context(), userIDContextKey, storage.LocalUserID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == "" {
				ctxLogger.Debug("AuthMiddleware: Token string empty", "path", r.URL.Path)
				utils.SendJSONError(w, "Malformed token", http.StatusUnauthorized)
				return
			}

			userID, err := authService.ValidateToken(tokenString)
			if err != nil {
				ctxLogger.Warn("AuthMiddleware: Token validation failed", "path", r.URL.Path, "error", err)
				utils.SendJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			enrichedLogger := ctxLogger.With(slog.String("userID", userID))
			ctx := logger.ToContext(r.Context(), enrichedLogger)
			ctx = context.WithValue(ctx, userIDContextKey, userID)
			ctx = context.WithValue(ctx, signedInContextKey, true)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
