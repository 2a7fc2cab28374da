package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskpulse/internal/model"
)

type fakeLister struct {
	mu    sync.Mutex
	tasks map[string][]model.Task
}

func newFakeLister() *fakeLister {
	return &fakeLister{tasks: make(map[string][]model.Task)}
}

func (f *fakeLister) ListByOwner(ctx context.Context, userID string) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Task, len(f.tasks[userID]))
	copy(out, f.tasks[userID])
	return out, nil
}

func (f *fakeLister) set(userID string, tasks []model.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[userID] = tasks
}

func receivePush(t *testing.T, ch <-chan []model.Task) []model.Task {
	t.Helper()
	select {
	case tasks := <-ch:
		return tasks
	case <-time.After(2 * time.Second):
		t.Fatal("expected a feed push")
		return nil
	}
}

func TestHub_InitialPushIsImmediate(t *testing.T) {
	lister := newFakeLister()
	hub := NewHub(lister, zap.NewNop())
	defer hub.Close()

	pushes := make(chan []model.Task, 8)
	unsubscribe := hub.Subscribe("alice", func(tasks []model.Task) {
		pushes <- tasks
	})
	defer unsubscribe()

	// No tasks yet: the initial push is an empty list, not silence
	initial := receivePush(t, pushes)
	assert.Empty(t, initial)
}

func TestHub_PushOnChange(t *testing.T) {
	lister := newFakeLister()
	hub := NewHub(lister, zap.NewNop())
	defer hub.Close()

	pushes := make(chan []model.Task, 8)
	unsubscribe := hub.Subscribe("alice", func(tasks []model.Task) {
		pushes <- tasks
	})
	defer unsubscribe()

	receivePush(t, pushes) // initial

	lister.set("alice", []model.Task{{ID: "t1", Title: "Buy milk", UserID: "alice"}})
	hub.Notify("alice")

	tasks := receivePush(t, pushes)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].ID)
}

func TestHub_OwnerScoping(t *testing.T) {
	lister := newFakeLister()
	hub := NewHub(lister, zap.NewNop())
	defer hub.Close()

	alicePushes := make(chan []model.Task, 8)
	unsubA := hub.Subscribe("alice", func(tasks []model.Task) { alicePushes <- tasks })
	defer unsubA()
	receivePush(t, alicePushes)

	// A change for bob must not wake alice's subscription
	lister.set("bob", []model.Task{{ID: "t2", Title: "Walk dog", UserID: "bob"}})
	hub.Notify("bob")

	select {
	case tasks := <-alicePushes:
		t.Fatalf("unexpected push for alice: %v", tasks)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	lister := newFakeLister()
	hub := NewHub(lister, zap.NewNop())
	defer hub.Close()

	pushes := make(chan []model.Task, 8)
	unsubscribe := hub.Subscribe("alice", func(tasks []model.Task) {
		pushes <- tasks
	})
	receivePush(t, pushes)

	unsubscribe()
	unsubscribe() // idempotent

	hub.Notify("alice")
	select {
	case <-pushes:
		t.Fatal("push after unsubscribe")
	case <-time.After(200 * time.Millisecond):
	}
}

// blockingLister parks inside ListByOwner until its context is cancelled.
type blockingLister struct {
	started  chan struct{}
	released chan error
}

func (l *blockingLister) ListByOwner(ctx context.Context, userID string) ([]model.Task, error) {
	l.started <- struct{}{}
	<-ctx.Done()
	l.released <- ctx.Err()
	return nil, ctx.Err()
}

func TestHub_UnsubscribeCancelsSnapshotRead(t *testing.T) {
	lister := &blockingLister{
		started:  make(chan struct{}, 1),
		released: make(chan error, 1),
	}
	hub := NewHub(lister, zap.NewNop())
	defer hub.Close()

	unsubscribe := hub.Subscribe("alice", func([]model.Task) {
		t.Error("push must not be delivered from a cancelled read")
	})

	select {
	case <-lister.started:
	case <-time.After(2 * time.Second):
		t.Fatal("initial snapshot read never started")
	}

	// The in-flight read must not outlive the subscription
	unsubscribe()

	select {
	case err := <-lister.released:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot read not cancelled by unsubscribe")
	}
}

func TestHub_CloseCancelsAll(t *testing.T) {
	lister := newFakeLister()
	hub := NewHub(lister, zap.NewNop())

	pushes := make(chan []model.Task, 8)
	unsubscribe := hub.Subscribe("alice", func(tasks []model.Task) {
		pushes <- tasks
	})
	receivePush(t, pushes)

	hub.Close()

	// Handles held by callers must stay safe after close; shutdown closes the
	// hub while websocket handlers still hold their deferred unsubscribes
	unsubscribe()
	unsubscribe()

	hub.Notify("alice")
	select {
	case <-pushes:
		t.Fatal("push after close")
	case <-time.After(200 * time.Millisecond):
	}

	// Subscribing after close is a no-op
	late := make(chan []model.Task, 1)
	unsub := hub.Subscribe("bob", func(tasks []model.Task) { late <- tasks })
	unsub()
	select {
	case <-late:
		t.Fatal("subscriber ran after close")
	case <-time.After(100 * time.Millisecond):
	}
}
