package middleware

import (
	"context"
	"net/http"

	"github.com/karthikn/heritage-chat/backend/internal/auth"
)

// RequireUser validates caller identity and injects user_id into the
// request context. The user-id header is the primary identity; when it is
// absent the session cookie is consulted as a fallback for browser
// clients. Requests with neither are rejected before any store access.
func RequireUser(sessions *auth.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("user-id")

			if userID == "" && sessions.Enabled() {
				if cookie, err := r.Cookie(auth.SessionCookie); err == nil {
					userID, _ = sessions.Get(r.Context(), cookie.Value)
				}
			}

			if userID == "" {
				http.Error(w, `{"error":"not authenticated"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), "user_id", userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
