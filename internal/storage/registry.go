package storage

import (
	"fmt"
	"log/slog"
)

// Open creates the KV backend selected by cfg.Backend.
//
// The set of backends is fixed at compile time; an unknown name is a
// configuration error, not a fallback to a default.
func Open(cfg KVConfig, logger *slog.Logger) (KV, error) {
	switch cfg.Backend {
	case BackendBadger, "":
		return NewBadgerKV(cfg, logger)
	case BackendMemory:
		return NewMemoryKV(cfg.Memory, logger), nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}
