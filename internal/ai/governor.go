// Package ai mediates requests for task encouragement messages. The governor
// owns a per-session cache and two rate-limit windows and shields callers from
// latency and failures of the generation backend: RequestMessage always
// returns some message, falling back to canned templates when it cannot or
// should not call out.
package ai

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"taskpulse/internal/model"
)

// Generator is the external text-generation backend.
type Generator interface {
	Generate(ctx context.Context, title string) (string, error)
}

const (
	// perTitleWindow bounds repeated generation for one title.
	perTitleWindow = 10 * time.Second
	// globalWindow bounds aggregate request volume across all titles.
	globalWindow = 6 * time.Second

	defaultMessage = "You can do this! 💪"
)

// Governor decides per request whether to serve from cache, call the
// generation backend, or fall back. The cache is keyed by the raw task title:
// two tasks with the same title share a message, and a renamed task misses.
// That is intended memoization — the message depends only on the title text.
type Governor struct {
	gen    Generator // nil when no credential is configured
	logger *zap.Logger
	now    func() time.Time

	mu          sync.Mutex
	cache       map[string]model.AITaskMessage
	lastByTitle map[string]time.Time
	globalLast  time.Time
}

func NewGovernor(gen Generator, logger *zap.Logger) *Governor {
	return &Governor{
		gen:         gen,
		logger:      logger,
		now:         time.Now,
		cache:       make(map[string]model.AITaskMessage),
		lastByTitle: make(map[string]time.Time),
	}
}

// RequestMessage never fails: every path resolves to a message. Fallbacks are
// not cached, so a later retry for the same title may still reach the backend.
func (g *Governor) RequestMessage(ctx context.Context, title string) model.AITaskMessage {
	g.mu.Lock()

	if msg, ok := g.cache[title]; ok {
		g.mu.Unlock()
		return msg
	}

	now := g.now()
	if now.Sub(g.lastByTitle[title]) < perTitleWindow || now.Sub(g.globalLast) < globalWindow {
		g.mu.Unlock()
		g.logger.Debug("rate limited, using fallback message", zap.String("title", title))
		return Fallback(title)
	}

	if g.gen == nil {
		g.mu.Unlock()
		return Fallback(title)
	}

	// Stamp the windows before issuing the call so an in-flight request
	// already counts against the limit. The lock is not held across the
	// network call; concurrent requests for the same title are not
	// deduplicated.
	g.lastByTitle[title] = now
	g.globalLast = now
	g.mu.Unlock()

	text, err := g.gen.Generate(ctx, title)
	if err != nil {
		g.logger.Warn("message generation failed, using fallback",
			zap.String("title", title),
			zap.Error(err),
		)
		return Fallback(title)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		text = defaultMessage
	}

	msg := model.AITaskMessage{
		Message: text,
		Type:    model.MessageMotivational,
	}

	g.mu.Lock()
	g.cache[title] = msg
	g.mu.Unlock()

	return msg
}
