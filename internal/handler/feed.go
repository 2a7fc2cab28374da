package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"taskpulse/internal/auth"
	"taskpulse/internal/feed"
	"taskpulse/internal/model"
)

// FeedHandler exposes the task feed over WebSocket: the owner's full ordered
// task list is pushed on connect and after every change until the client
// disconnects or the session ends.
type FeedHandler struct {
	hub      *feed.Hub
	sessions auth.Gateway
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewFeedHandler(hub *feed.Hub, sessions auth.Gateway, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{
		hub:      hub,
		sessions: sessions,
		logger:   logger,
		// The session rides a cookie, so cross-origin upgrades must be
		// refused; the zero-value upgrader enforces same-origin.
		upgrader: websocket.Upgrader{},
	}
}

func (h *FeedHandler) Serve(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	token := TokenFrom(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Hub delivery is single-goroutine per subscriber, so WriteJSON needs no
	// extra locking here.
	unsubscribe := h.hub.Subscribe(user.ID, func(tasks []model.Task) {
		if err := conn.WriteJSON(tasks); err != nil {
			conn.Close()
		}
	})
	defer unsubscribe()

	// End the feed when the session is signed out elsewhere.
	unobserve := h.sessions.Observe(token, func(u *model.User) {
		if u == nil {
			conn.Close()
		}
	})
	defer unobserve()

	h.logger.Info("feed client connected", zap.String("user_id", user.ID))

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.logger.Debug("feed client disconnected",
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
			return
		}
	}
}
