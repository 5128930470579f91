// forum-backend/handlers/middleware.go

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Desi451/forum-backend/apperr"
	"github.com/Desi451/forum-backend/models"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const IdentityKey ContextKey = "identity"

// AuthMiddleware resolves a Bearer token into the caller's identity and
// stores it on the request context. Requests without a token pass through
// unauthenticated; a present but invalid token is rejected outright.
func AuthMiddleware(app App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeError(w, r, app, apperr.New(apperr.CodeUnauthenticated, "Malformed Authorization header."))
				return
			}
			claims, err := app.Tokens().Validate(token)
			if err != nil {
				writeError(w, r, app, apperr.New(apperr.CodeUnauthenticated, "Invalid or expired token."))
				return
			}
			ctx := context.WithValue(r.Context(), IdentityKey, claims.Identity())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// identityFrom returns the caller's identity, zero-valued when the request
// carried no token.
func identityFrom(r *http.Request) models.Identity {
	if id, ok := r.Context().Value(IdentityKey).(models.Identity); ok {
		return id
	}
	return models.Identity{}
}

// requireIdentity is used by handlers that cannot proceed anonymously.
func requireIdentity(r *http.Request) (models.Identity, error) {
	id := identityFrom(r)
	if id.UserID <= 0 {
		return models.Identity{}, apperr.New(apperr.CodeUnauthenticated, "You aren't logged in.")
	}
	return id, nil
}

// NewStructuredLogger logs each request with slog once it completes.
func NewStructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("Request served",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
