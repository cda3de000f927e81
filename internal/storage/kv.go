// Package storage provides the key/value backend abstraction for authtoken.
//
// The KV interface mirrors the small slice of Redis-like command semantics
// the token store relies on: per-key TTLs, immediate deletion via
// Expire(key, 0), batched reads and prefix enumeration. Backends provide
// atomicity per individual command only; multi-step sequences built on top
// of it (primary record plus index entry) are explicitly not transactional.
package storage

import (
	"context"
	"errors"
	"time"
)

// Common backend errors.
var (
	// ErrKeyNotFound is returned by Get when the key is absent or expired.
	ErrKeyNotFound = errors.New("storage: key not found")

	// ErrClosed is returned when the backend has been shut down.
	ErrClosed = errors.New("storage: backend closed")
)

// KV is a TTL-capable key/value backend.
type KV interface {
	// Get retrieves the value for key. Returns ErrKeyNotFound on a miss.
	Get(ctx context.Context, key string) ([]byte, error)

	// MGet retrieves multiple keys at once. The result has one entry per
	// requested key, nil where the key is absent.
	MGet(ctx context.Context, keys []string) ([][]byte, error)

	// Set stores a value without expiry.
	Set(ctx context.Context, key string, value []byte) error

	// SetTTL stores a value that expires after ttl.
	SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// Expire resets the TTL of an existing key. A ttl <= 0 deletes the
	// key immediately; a missing key is a no-op.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Exists reports whether key is present and not expired.
	Exists(ctx context.Context, key string) (bool, error)

	// KeysByPrefix returns all live keys starting with prefix.
	KeysByPrefix(ctx context.Context, prefix string) ([]string, error)

	// Close shuts the backend down.
	Close() error
}

// Supported backend names.
const (
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// KVConfig selects and configures a KV backend.
type KVConfig struct {
	// Backend specifies the backend type ("badger" or "memory").
	// Default: "badger"
	Backend string

	// Dir is the storage directory (badger backend only).
	Dir string

	// Badger-specific configuration
	Badger BadgerConfig

	// Memory-specific configuration
	Memory MemoryConfig
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic value log GC runs.
	// Default: 10m
	GCInterval string

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 256MB
	ValueLogFileSize int64

	// SyncWrites enables fsync after each write.
	// Default: true
	SyncWrites bool
}

// MemoryConfig contains memory backend tuning parameters.
type MemoryConfig struct {
	// SweepInterval is the interval between expired-entry sweeps.
	// Default: 1m
	SweepInterval string
}

// DefaultKVConfig returns the default KV configuration.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Backend: BackendBadger,
		Dir:     dir,
		Badger:  DefaultBadgerConfig(),
		Memory:  DefaultMemoryConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       "10m",
		GCThreshold:      0.5,
		CacheSize:        64 << 20,  // 64MB
		ValueLogFileSize: 256 << 20, // 256MB
		SyncWrites:       true,
	}
}

// DefaultMemoryConfig returns the default memory backend configuration.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		SweepInterval: "1m",
	}
}
