// Package admin guards operator-only routes such as manual payment status
// overrides.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"coffeereg/pkg/requestcontext"
	"coffeereg/pkg/secrets"
)

const (
	TokenHeader   = "X-Admin-Token"
	ActorIDHeader = "X-Admin-Actor-ID"
)

type contextKeyAdminActorID struct{}

// GetAdminActorID returns the operator named in X-Admin-Actor-ID, or "" when
// the request did not pass through RequireAdminToken.
func GetAdminActorID(ctx context.Context) string {
	if actorID, ok := ctx.Value(contextKeyAdminActorID{}).(string); ok {
		return actorID
	}
	return ""
}

// RequireAdminToken verifies X-Admin-Token against a bcrypt hash. An empty
// hash disables the protected routes entirely.
func RequireAdminToken(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := r.Header.Get(TokenHeader)
			if !secrets.Matches(token, tokenHash) {
				logger.WarnContext(ctx, "admin token rejected",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`))
				return
			}

			actorID := r.Header.Get(ActorIDHeader)
			if actorID == "" {
				actorID = "admin"
			}
			ctx = context.WithValue(ctx, contextKeyAdminActorID{}, actorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
