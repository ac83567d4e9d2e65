package middleware

import (
	"net/http"
	"strings"

	"github.com/josh-kwaku/clinic-billing/internal/auth"
	"github.com/josh-kwaku/clinic-billing/internal/handler"
	"github.com/josh-kwaku/clinic-billing/internal/logging"
)

// Auth resolves the bearer token to an actor and tags the request logger with it.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			actor, err := auth.ValidateToken(token, secret)
			if err != nil {
				logging.FromContext(r.Context()).Debug("token rejected", "error", err)
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			ctx := auth.ContextWithActor(r.Context(), actor)
			ctx = logging.WithAttrs(ctx, "actor", actor.Ref)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
