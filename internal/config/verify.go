package config

import (
	"errors"
	"fmt"
	"time"
)

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := verifyToken(&cfg.Token); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyToken(cfg *TokenSection) error {
	if cfg.Length <= 0 || cfg.Length%2 != 0 {
		return fmt.Errorf("token.length must be a positive even number, got %d", cfg.Length)
	}
	if cfg.TTL < 0 {
		return errors.New("token.ttl must not be negative")
	}
	if cfg.GuestTTL < 0 {
		return errors.New("token.guest_ttl must not be negative")
	}
	if cfg.TokenPrefix == "" {
		return errors.New("token.token_prefix is required")
	}
	if cfg.UserPrefix == "" {
		return errors.New("token.user_prefix is required")
	}
	if cfg.TokenPrefix == cfg.UserPrefix {
		return errors.New("token.token_prefix and token.user_prefix must differ")
	}
	if cfg.InputKey == "" {
		return errors.New("token.input_key is required")
	}
	if cfg.RateLimit < 0 {
		return errors.New("token.rate_limit must not be negative")
	}
	if cfg.RateLimit > 0 && cfg.RateBurst < 1 {
		return errors.New("token.rate_burst must be at least 1 when rate limiting is on")
	}

	if len(cfg.ClientIDs) > 0 && cfg.DefaultClientID != "" {
		found := false
		for _, id := range cfg.ClientIDs {
			if id == cfg.DefaultClientID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("token.default_client_id %q is not in token.client_ids", cfg.DefaultClientID)
		}
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Backend {
	case "badger":
		if cfg.DataDir == "" {
			return errors.New("storage.data_dir is required for the badger backend")
		}
		if cfg.Badger.GCInterval != "" {
			if _, err := time.ParseDuration(cfg.Badger.GCInterval); err != nil {
				return fmt.Errorf("storage.badger.gc_interval: %w", err)
			}
		}
		if cfg.Badger.GCThreshold < 0 || cfg.Badger.GCThreshold > 1 {
			return errors.New("storage.badger.gc_threshold must be between 0 and 1")
		}
	case "memory":
		if cfg.Memory.SweepInterval != "" {
			if _, err := time.ParseDuration(cfg.Memory.SweepInterval); err != nil {
				return fmt.Errorf("storage.memory.sweep_interval: %w", err)
			}
		}
	default:
		return fmt.Errorf("storage.backend must be badger or memory, got %q", cfg.Backend)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch cfg.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not recognized", cfg.Level)
	}
	switch cfg.Format {
	case "", "json", "text", "console":
	default:
		return fmt.Errorf("log.format %q is not recognized", cfg.Format)
	}
	return nil
}
