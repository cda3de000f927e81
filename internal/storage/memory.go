package storage

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/digitsoft/authtoken-go/pkg/cmap"
)

// memEntry is a stored value with an optional expiry deadline.
// A zero expiresAt means the entry never expires.
type memEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(now)
}

// MemoryKV implements KV in process memory.
//
// Expired entries are dropped lazily on read and swept periodically by a
// janitor goroutine. Intended for tests and single-process deployments
// where durability is not required.
type MemoryKV struct {
	entries *cmap.Map[memEntry]
	logger  *slog.Logger

	closed atomic.Bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewMemoryKV creates an in-memory KV store and starts its janitor.
func NewMemoryKV(cfg MemoryConfig, logger *slog.Logger) *MemoryKV {
	if logger == nil {
		logger = slog.Default()
	}

	interval, err := time.ParseDuration(cfg.SweepInterval)
	if err != nil || interval <= 0 {
		interval = time.Minute
	}

	kv := &MemoryKV{
		entries: cmap.New[memEntry](),
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	go kv.janitor(interval)

	return kv
}

// Get retrieves a value by key.
func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}

	entry, ok := m.entries.Get(key)
	if !ok {
		return nil, ErrKeyNotFound
	}
	if entry.expired(time.Now()) {
		m.entries.Delete(key)
		return nil, ErrKeyNotFound
	}

	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

// MGet retrieves multiple keys, with nil entries for misses.
func (m *MemoryKV) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}

	values := make([][]byte, len(keys))
	for i, key := range keys {
		value, err := m.Get(ctx, key)
		if err != nil {
			continue
		}
		values[i] = value
	}
	return values, nil
}

// Set stores a key-value pair without expiry.
func (m *MemoryKV) Set(ctx context.Context, key string, value []byte) error {
	if m.closed.Load() {
		return ErrClosed
	}
	m.entries.Set(key, memEntry{value: cloneBytes(value)})
	return nil
}

// SetTTL stores a key-value pair that expires after ttl.
func (m *MemoryKV) SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if ttl <= 0 {
		m.entries.Delete(key)
		return nil
	}
	m.entries.Set(key, memEntry{
		value:     cloneBytes(value),
		expiresAt: time.Now().Add(ttl),
	})
	return nil
}

// Delete removes the given keys.
func (m *MemoryKV) Delete(ctx context.Context, keys ...string) error {
	if m.closed.Load() {
		return ErrClosed
	}
	for _, key := range keys {
		m.entries.Delete(key)
	}
	return nil
}

// Expire resets the TTL of an existing key.
// A ttl <= 0 deletes the key; a missing key is a no-op.
func (m *MemoryKV) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if ttl <= 0 {
		m.entries.Delete(key)
		return nil
	}

	entry, ok := m.entries.Get(key)
	if !ok || entry.expired(time.Now()) {
		return nil
	}
	entry.expiresAt = time.Now().Add(ttl)
	m.entries.Set(key, entry)
	return nil
}

// Exists reports whether key is present and not expired.
func (m *MemoryKV) Exists(ctx context.Context, key string) (bool, error) {
	if m.closed.Load() {
		return false, ErrClosed
	}

	entry, ok := m.entries.Get(key)
	if !ok {
		return false, nil
	}
	if entry.expired(time.Now()) {
		m.entries.Delete(key)
		return false, nil
	}
	return true, nil
}

// KeysByPrefix returns all live keys starting with prefix.
func (m *MemoryKV) KeysByPrefix(ctx context.Context, prefix string) ([]string, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}

	now := time.Now()
	var keys []string
	m.entries.Range(func(key string, entry memEntry) bool {
		if strings.HasPrefix(key, prefix) && !entry.expired(now) {
			keys = append(keys, key)
		}
		return true
	})
	return keys, nil
}

// Close stops the janitor and releases all entries.
func (m *MemoryKV) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(m.stopCh)
	<-m.doneCh
	m.entries.Clear()
	return nil
}

// janitor periodically sweeps expired entries.
func (m *MemoryKV) janitor(interval time.Duration) {
	defer close(m.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stopCh:
			return
		}
	}
}

func (m *MemoryKV) sweep() {
	now := time.Now()
	var stale []string
	m.entries.Range(func(key string, entry memEntry) bool {
		if entry.expired(now) {
			stale = append(stale, key)
		}
		return true
	})
	for _, key := range stale {
		m.entries.Delete(key)
	}
	if len(stale) > 0 {
		m.logger.Debug("swept expired entries", "count", len(stale))
	}
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
