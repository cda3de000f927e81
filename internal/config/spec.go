// Package config defines the application configuration structure.
package config

// Config is the root configuration for authtoken.
type Config struct {
	Token   TokenSection   `koanf:"token"`
	Storage StorageSection `koanf:"storage"`
	Log     LogSection     `koanf:"log"`
}

// TokenSection configures token format and issuance policy.
type TokenSection struct {
	// Length is the random-segment length of generated tokens. Must be a
	// positive even number; the stored token string is Length+64 runes.
	Length int `koanf:"length"`

	// TTL is the default token lifetime in seconds. Zero disables expiry.
	TTL int64 `koanf:"ttl"`

	// GuestTTL is the default guest token lifetime in seconds.
	GuestTTL int64 `koanf:"guest_ttl"`

	// TokenPrefix is the storage key prefix for token records.
	TokenPrefix string `koanf:"token_prefix"`

	// UserPrefix is the storage key prefix for the per-user index.
	UserPrefix string `koanf:"user_prefix"`

	// ClientIDs is the allow-list of client ids. Empty accepts any.
	ClientIDs []string `koanf:"client_ids"`

	// DefaultClientID is used when a request names no client.
	DefaultClientID string `koanf:"default_client_id"`

	// InputKey is the query/body parameter the guard reads tokens from.
	InputKey string `koanf:"input_key"`

	// RateLimit is the per-user token issuance rate in tokens per second.
	// Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit"`

	// RateBurst is the issuance burst allowance per user.
	RateBurst int `koanf:"rate_burst"`
}

// StorageSection configures the KV backend.
type StorageSection struct {
	// Backend selects the KV backend ("badger" or "memory").
	Backend string `koanf:"backend"`

	// DataDir is the storage directory (badger backend).
	DataDir string `koanf:"data_dir"`

	Badger BadgerSection `koanf:"badger"`
	Memory MemorySection `koanf:"memory"`
}

// BadgerSection holds Badger tuning parameters.
type BadgerSection struct {
	GCInterval       string  `koanf:"gc_interval"`
	GCThreshold      float64 `koanf:"gc_threshold"`
	CacheSize        int64   `koanf:"cache_size"`
	ValueLogFileSize int64   `koanf:"value_log_file_size"`
	SyncWrites       bool    `koanf:"sync_writes"`
}

// MemorySection holds memory backend parameters.
type MemorySection struct {
	SweepInterval string `koanf:"sweep_interval"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
