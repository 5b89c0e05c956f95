package session

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/client/events"
)

// Tracker keeps the current State up to date from a bus.
type Tracker struct {
	mu    sync.RWMutex
	state State
	unsub func()
}

// NewTracker subscribes to bus. Call Stop to detach.
func NewTracker(bus *events.Bus) *Tracker {
	t := &Tracker{}
	t.unsub = bus.Subscribe(t.apply)
	return t
}

func (t *Tracker) apply(_ context.Context, e events.Event) {
	t.mu.Lock()
	t.state = Reduce(t.state, e)
	t.mu.Unlock()
}

// State returns a snapshot.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *Tracker) Stop() {
	t.unsub()
}
