package rolelookup

import (
	"context"
	"sync"
	"time"

	"github.com/nacholimon/opinwork-firebase/internal/app/system/events"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Watcher caches one role resolution per identity. Concurrent callers for
// the same identity share a single lookup, and the cached answer is dropped
// when an identity or profile event names that identity, or once it is
// older than maxAge. Failed lookups are never cached.
type Watcher struct {
	lookup *Lookup
	log    *zap.Logger
	maxAge time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	done       chan struct{}
	state      State
	resolvedAt time.Time
}

// NewWatcher wraps l. A zero maxAge keeps answers until invalidated.
func NewWatcher(l *Lookup, maxAge time.Duration, log *zap.Logger) *Watcher {
	return &Watcher{
		lookup:  l,
		log:     log,
		maxAge:  maxAge,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Attach subscribes the watcher to bus and returns the unsubscribe func.
func (w *Watcher) Attach(bus events.Bus) func() {
	return bus.Subscribe(func(e events.Event) {
		if e.IdentityID != "" {
			w.Invalidate(e.IdentityID)
		}
	})
}

// Invalidate forgets the cached role for identityID.
func (w *Watcher) Invalidate(identityID string) {
	w.mu.Lock()
	delete(w.entries, identityID)
	w.mu.Unlock()
}

// Prune drops resolved entries older than maxAge and reports how many were
// removed. Entries still in flight are kept.
func (w *Watcher) Prune() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for id, e := range w.entries {
		if w.stale(e) {
			delete(w.entries, id)
			n++
		}
	}
	return n
}

// Resolve returns the role state for identityID, starting a lookup if none
// is cached or in flight. If ctx ends before the lookup completes the
// result is Pending; the lookup itself continues and its answer is cached.
func (w *Watcher) Resolve(ctx context.Context, identityID string) State {
	w.mu.Lock()
	e, ok := w.entries[identityID]
	if ok && w.stale(e) {
		delete(w.entries, identityID)
		ok = false
	}
	if !ok {
		e = &entry{done: make(chan struct{})}
		w.entries[identityID] = e
		go w.run(identityID, e)
	}
	w.mu.Unlock()

	select {
	case <-e.done:
		return e.state
	case <-ctx.Done():
		return State{Pending: true}
	}
}

// stale must be called with mu held.
func (w *Watcher) stale(e *entry) bool {
	if w.maxAge <= 0 {
		return false
	}
	select {
	case <-e.done:
		return w.now().Sub(e.resolvedAt) > w.maxAge
	default:
		return false
	}
}

func (w *Watcher) run(identityID string, e *entry) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	role, err := w.lookup.Role(ctx, identityID)
	cancel()

	e.resolvedAt = w.now()
	if err != nil {
		w.log.Warn("role lookup failed",
			zap.String("identity_id", identityID),
			zap.Error(err))
		e.state = State{Known: false}
		w.mu.Lock()
		if w.entries[identityID] == e {
			delete(w.entries, identityID)
		}
		w.mu.Unlock()
	} else {
		e.state = State{Known: true, Role: role}
	}
	close(e.done)
}
