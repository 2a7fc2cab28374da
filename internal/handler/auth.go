package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskpulse/internal/auth"
	"taskpulse/pkg/respond"
)

const stateCookie = "tp_oauth_state"

type AuthHandler struct {
	sessions auth.Gateway
	logger   *zap.Logger
}

func NewAuthHandler(sessions auth.Gateway, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// Login redirects the browser to the identity provider.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
	})

	http.Redirect(w, r, h.sessions.AuthCodeURL(state), http.StatusFound)
}

// Callback finishes the interactive sign-in: verifies state, exchanges the
// code and sets the session cookie.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		respond.Error(w, r, http.StatusBadRequest, "invalid oauth state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		// User cancelled at the provider
		respond.Error(w, r, http.StatusUnauthorized, "sign-in cancelled")
		return
	}

	_, token, err := h.sessions.SignIn(r.Context(), code)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			respond.Error(w, r, http.StatusUnauthorized, "sign-in rejected")
			return
		}
		h.logger.Error("sign-in failed", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		h.sessions.SignOut(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	respond.NoContent(w)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r.Context())
	if !ok {
		respond.Error(w, r, http.StatusUnauthorized, "unauthenticated")
		return
	}
	respond.JSON(w, r, http.StatusOK, user)
}
