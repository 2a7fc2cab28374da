package handler

import (
	"context"
	"net/http"

	"taskpulse/internal/auth"
	"taskpulse/internal/model"
	"taskpulse/pkg/respond"
)

// SessionCookie carries the session token issued at sign-in.
const SessionCookie = "tp_session"

type ctxKey int

const (
	userKey ctxKey = iota
	tokenKey
)

func UserFrom(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userKey).(model.User)
	return user, ok
}

func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// RequireSession resolves the session cookie into a user and injects it into
// the request context. Requests without a live session get 401.
func RequireSession(sessions auth.Gateway) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil {
				respond.Error(w, r, http.StatusUnauthorized, "unauthenticated")
				return
			}

			user, err := sessions.CurrentUser(cookie.Value)
			if err != nil {
				respond.Error(w, r, http.StatusUnauthorized, "unauthenticated")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, tokenKey, cookie.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
