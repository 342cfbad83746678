package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/tally/internal/auth"
)

type ctxKey struct{}

// RequireUser rejects requests without a valid session token and stores the
// user ID in the request context.
func RequireUser(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}

			userID, err := svc.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) {
					http.Error(w, err.Error(), http.StatusUnauthorized)
					return
				}

				slog.Error("failed to authenticate request", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)

				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the authenticated user of the request, or "" outside
// RequireUser.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
