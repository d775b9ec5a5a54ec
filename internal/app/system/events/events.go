// Package events carries identity and profile change notifications between
// the components that cache per-identity state.
package events

import (
	"context"
	"sync"
	"time"
)

// Kind names an event.
type Kind string

const (
	IdentitySignedIn  Kind = "identity.signed_in"
	IdentitySignedOut Kind = "identity.signed_out"
	IdentityUpdated   Kind = "identity.updated"
	ProfileUpdated    Kind = "profile.updated"
)

// Event is a change affecting one identity.
type Event struct {
	Kind       Kind      `json:"kind"`
	IdentityID string    `json:"identity_id"`
	At         time.Time `json:"at"`
}

// Handler receives published events. Handlers run on the publisher's
// goroutine (LocalBus) or the bus receive loop (RedisBus) and must not block.
type Handler func(Event)

// Bus publishes events to subscribers.
type Bus interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(h Handler) (unsubscribe func())
}

// LocalBus delivers events to subscribers in the same process.
type LocalBus struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]Handler
}

func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[int]Handler)}
}

// Publish calls every current subscriber with e.
func (b *LocalBus) Publish(_ context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(e)
	}
	return nil
}

// Subscribe registers h and returns a func that removes it.
func (b *LocalBus) Subscribe(h Handler) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}
