package service

import (
	"context"

	"github.com/digitsoft/authtoken-go/internal/core/domain"
)

// SessionBridge reads and writes the opaque session blob carried by an
// access token. The blob is treated verbatim; interpreting it belongs to
// the session layer plugged in on top.
type SessionBridge struct {
	guard *Guard
}

// NewSessionBridge creates a bridge over a guard.
func NewSessionBridge(guard *Guard) *SessionBridge {
	return &SessionBridge{guard: guard}
}

// Load returns the session blob of the current token, or "".
func (b *SessionBridge) Load(ctx context.Context) string {
	t := b.guard.Token(ctx)
	if t == nil {
		return ""
	}
	return t.Session
}

// Store writes the session blob onto the current token and persists it.
// The write is skipped when no token is resolved or the blob is unchanged.
func (b *SessionBridge) Store(ctx context.Context, blob string) error {
	t := b.guard.Token(ctx)
	if t == nil {
		return domain.ErrTokenNotFound
	}
	if t.Session == blob {
		return nil
	}

	t.Session = blob
	_, err := t.Save(ctx)
	return err
}

// Destroy clears the session blob of the current token and persists it.
func (b *SessionBridge) Destroy(ctx context.Context) error {
	t := b.guard.Token(ctx)
	if t == nil {
		return nil
	}
	if t.Session == "" {
		return nil
	}

	t.Session = ""
	_, err := t.Save(ctx)
	return err
}
