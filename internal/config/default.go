package config

// Default configuration values.
const (
	DefaultTokenLength = 60
	DefaultTTL         = int64(3600)
	DefaultGuestTTL    = int64(900)
	DefaultTokenPrefix = "tkn:"
	DefaultUserPrefix  = "usr:tkns:"
	DefaultClientID    = "api"
	DefaultInputKey    = "token"

	DefaultBackend = "badger"
	DefaultDataDir = "/var/lib/authtoken/data"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Token: TokenSection{
			Length:          DefaultTokenLength,
			TTL:             DefaultTTL,
			GuestTTL:        DefaultGuestTTL,
			TokenPrefix:     DefaultTokenPrefix,
			UserPrefix:      DefaultUserPrefix,
			DefaultClientID: DefaultClientID,
			InputKey:        DefaultInputKey,
			RateBurst:       10,
		},
		Storage: StorageSection{
			Backend: DefaultBackend,
			DataDir: DefaultDataDir,
			Badger: BadgerSection{
				GCInterval:       "10m",
				GCThreshold:      0.5,
				CacheSize:        64 << 20,
				ValueLogFileSize: 256 << 20,
				SyncWrites:       true,
			},
			Memory: MemorySection{
				SweepInterval: "1m",
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
