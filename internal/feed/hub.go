// Package feed implements the owner-scoped task subscription contract: an
// immediate push of current state on subscribe, a full snapshot push after
// every change, and delivery that stops once the subscription is cancelled.
package feed

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"taskpulse/internal/model"
)

// Lister reads the current ordered task set for an owner.
type Lister interface {
	ListByOwner(ctx context.Context, userID string) ([]model.Task, error)
}

type subscriber struct {
	ownerID string
	fn      func([]model.Task)
	pending chan struct{} // cap 1: wakeups coalesce instead of queueing

	// ctx is cancelled on unsubscribe or hub close; snapshot reads inherit
	// it so they stop with the subscription. cancel is idempotent, so the
	// unsubscribe handle and Close may both fire.
	ctx    context.Context
	cancel context.CancelFunc
}

type Hub struct {
	lister Lister
	logger *zap.Logger

	mu     sync.Mutex
	subs   map[string]map[int]*subscriber
	nextID int
	closed bool
}

func NewHub(lister Lister, logger *zap.Logger) *Hub {
	return &Hub{
		lister: lister,
		logger: logger,
		subs:   make(map[string]map[int]*subscriber),
	}
}

// Subscribe registers fn for the owner's task feed and returns a cancellation
// handle. The initial snapshot and all later pushes are delivered from a
// single goroutine, so fn never runs concurrently with itself.
func (h *Hub) Subscribe(ownerID string, fn func([]model.Task)) (unsubscribe func()) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &subscriber{
		ownerID: ownerID,
		fn:      fn,
		pending: make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		cancel()
		return func() {}
	}
	if h.subs[ownerID] == nil {
		h.subs[ownerID] = make(map[int]*subscriber)
	}
	id := h.nextID
	h.nextID++
	h.subs[ownerID][id] = s
	h.mu.Unlock()

	go h.deliver(s)

	return func() {
		h.mu.Lock()
		delete(h.subs[ownerID], id)
		h.mu.Unlock()
		cancel()
	}
}

// Notify schedules a snapshot push for every subscriber of the owner. Safe to
// call from any goroutine; a slow subscriber coalesces pushes rather than
// blocking the writer.
func (h *Hub) Notify(ownerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs[ownerID] {
		select {
		case s.pending <- struct{}{}:
		default:
		}
	}
}

// Close cancels all subscriptions. Used on shutdown. Unsubscribe handles held
// by callers stay safe to invoke afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, subs := range h.subs {
		for id, s := range subs {
			s.cancel()
			delete(subs, id)
		}
	}
}

func (h *Hub) deliver(s *subscriber) {
	h.push(s) // initial snapshot

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.pending:
			h.push(s)
		}
	}
}

func (h *Hub) push(s *subscriber) {
	tasks, err := h.lister.ListByOwner(s.ctx, s.ownerID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		h.logger.Error("feed snapshot failed",
			zap.String("owner_id", s.ownerID),
			zap.Error(err),
		)
		return
	}
	s.fn(tasks)
}
