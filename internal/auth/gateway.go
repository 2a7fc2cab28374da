// Package auth is the session gateway: sign-in against an external identity
// provider, in-memory session tracking, and an observable current-user feed.
package auth

import (
	"context"
	"errors"

	"taskpulse/internal/model"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Gateway abstracts the identity provider so handlers and tests do not depend
// on the OAuth wiring.
type Gateway interface {
	// AuthCodeURL returns the provider URL that starts the interactive
	// sign-in, carrying state for CSRF protection.
	AuthCodeURL(state string) string

	// SignIn exchanges an authorization code for a user and a session token.
	// Returns ErrUnauthenticated when the provider rejects the code.
	SignIn(ctx context.Context, code string) (model.User, string, error)

	// SignOut ends the session. Unknown tokens are a no-op.
	SignOut(token string)

	// CurrentUser resolves a session token. Returns ErrUnauthenticated for
	// missing or ended sessions.
	CurrentUser(token string) (model.User, error)

	// Observe pushes the session's user immediately (nil when signed out)
	// and again on every later sign-in or sign-out of that session. The
	// returned handle stops delivery.
	Observe(token string, fn func(*model.User)) (unsubscribe func())
}
