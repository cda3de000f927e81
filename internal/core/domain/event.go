package domain

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// TokenCreated is published after a new access token has been minted.
type TokenCreated struct {
	// EventID is a unique, time-ordered event identifier.
	EventID string

	// Token is the freshly created token entity.
	Token *AccessToken

	// At is the event timestamp.
	At time.Time
}

// TokenCreatedHandler consumes TokenCreated events.
type TokenCreatedHandler func(TokenCreated)

// Dispatcher fans TokenCreated events out to registered handlers.
// Handlers run synchronously on the publishing goroutine.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []TokenCreatedHandler
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers a handler for TokenCreated events.
func (d *Dispatcher) Subscribe(h TokenCreatedHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// TokenCreated publishes a TokenCreated event for t.
func (d *Dispatcher) TokenCreated(t *AccessToken) {
	event := TokenCreated{
		EventID: newEventID(),
		Token:   t,
		At:      time.Now(),
	}

	d.mu.RLock()
	handlers := d.handlers
	d.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// newEventID generates a time-ordered ULID event id.
func newEventID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		// crypto/rand never fails on supported platforms.
		return strings.ToLower(ulid.Make().String())
	}
	return strings.ToLower(id.String())
}
