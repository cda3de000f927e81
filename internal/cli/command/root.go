// Package command provides CLI command definitions for authtoken-cli.
package command

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/digitsoft/authtoken-go/internal/cli/output"
	"github.com/digitsoft/authtoken-go/internal/config"
	"github.com/digitsoft/authtoken-go/internal/core/domain"
	"github.com/digitsoft/authtoken-go/internal/core/service"
	"github.com/digitsoft/authtoken-go/internal/infra/buildinfo"
	"github.com/digitsoft/authtoken-go/internal/infra/confloader"
	"github.com/digitsoft/authtoken-go/internal/storage"
	"github.com/digitsoft/authtoken-go/internal/telemetry/logger"
	"github.com/digitsoft/authtoken-go/internal/telemetry/metric"
	"github.com/digitsoft/authtoken-go/internal/tokenstore"
	"github.com/digitsoft/authtoken-go/pkg/token"
)

// envKey is the metadata key holding the resolved environment.
const envKey = "env"

// Env is the resolved runtime environment shared by all commands.
type Env struct {
	Config *config.Config
	Logger *slog.Logger
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:     "authtoken-cli",
		Usage:    "manage opaque access tokens",
		Version:  buildinfo.String(),
		Flags:    globalFlags(),
		Metadata: map[string]any{},
		Commands: []*cli.Command{
			TokenCommand(),
			SessionCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: func(c *cli.Context) error {
			cfg := config.Default()

			loader := confloader.NewLoader(confloader.WithConfigFile(c.String("config")))
			if err := loader.Load(cfg); err != nil {
				return err
			}
			if c.IsSet("backend") {
				cfg.Storage.Backend = c.String("backend")
			}
			if c.IsSet("data-dir") {
				cfg.Storage.DataDir = c.String("data-dir")
			}
			if c.Bool("verbose") {
				cfg.Log.Level = "debug"
			}
			if err := config.Verify(cfg); err != nil {
				return err
			}

			log := logger.New(logger.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
			})

			c.App.Metadata[envKey] = &Env{Config: cfg, Logger: log}
			return nil
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "configuration file path",
			EnvVars: []string{"AUTHTOKEN_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "backend",
			Usage:   "storage backend: badger, memory",
			EnvVars: []string{"AUTHTOKEN_BACKEND"},
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Usage:   "storage directory (badger backend)",
			EnvVars: []string{"AUTHTOKEN_DATA_DIR"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "enable debug logging",
		},
	}
}

func env(c *cli.Context) *Env {
	if e, ok := c.App.Metadata[envKey].(*Env); ok {
		return e
	}
	return &Env{Config: config.Default()}
}

func formatter(c *cli.Context) output.Formatter {
	return output.NewFormatter(output.Format(c.String("output")))
}

// appStack is the wired token stack a command operates on.
type appStack struct {
	kv      storage.KV
	store   *tokenstore.Store
	codec   *token.Codec
	factory *service.TokenFactory
}

// Close releases the storage backend.
func (s *appStack) Close() error {
	return s.kv.Close()
}

// openStack wires the storage backend, store, codec and factory from the
// resolved configuration.
func openStack(c *cli.Context) (*appStack, error) {
	e := env(c)
	cfg := e.Config
	slogger := e.Logger
	if slogger == nil {
		slogger = logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	}

	kvCfg := storage.KVConfig{
		Backend: cfg.Storage.Backend,
		Dir:     cfg.Storage.DataDir,
		Badger: storage.BadgerConfig{
			GCInterval:       cfg.Storage.Badger.GCInterval,
			GCThreshold:      cfg.Storage.Badger.GCThreshold,
			CacheSize:        cfg.Storage.Badger.CacheSize,
			ValueLogFileSize: cfg.Storage.Badger.ValueLogFileSize,
			SyncWrites:       cfg.Storage.Badger.SyncWrites,
		},
		Memory: storage.MemoryConfig{
			SweepInterval: cfg.Storage.Memory.SweepInterval,
		},
	}

	kv, err := storage.Open(kvCfg, slogger)
	if err != nil {
		return nil, err
	}

	registry := metric.NewRegistry()
	metric.RegisterBuildInfo(registry, buildinfo.Version, buildinfo.Commit)
	if badgerKV, ok := kv.(*storage.BadgerKV); ok {
		badgerKV.RegisterMetrics(registry)
	}

	codec, err := token.NewCodec(cfg.Token.Length)
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("token codec: %w", err)
	}
	store := tokenstore.New(kv, codec, tokenstore.Config{
		TokenPrefix: cfg.Token.TokenPrefix,
		UserPrefix:  cfg.Token.UserPrefix,
	}, slogger).RegisterMetrics(registry)

	dispatcher := domain.NewDispatcher()
	dispatcher.Subscribe(func(e domain.TokenCreated) {
		slogger.Info("token created",
			"event_id", e.EventID,
			"user_id", e.Token.UserID,
			"client_id", e.Token.ClientID)
	})

	opts := []service.FactoryOption{
		service.WithDispatcher(dispatcher),
		service.WithFactoryLogger(slogger),
	}
	if cfg.Token.RateLimit > 0 {
		opts = append(opts, service.WithRateLimiter(
			service.NewRateLimiterRegistry(cfg.Token.RateLimit, cfg.Token.RateBurst)))
	}

	factory := service.NewTokenFactory(store, codec, service.FactoryConfig{
		ClientIDs:       cfg.Token.ClientIDs,
		DefaultClientID: cfg.Token.DefaultClientID,
		TTL:             cfg.Token.TTL,
		GuestTTL:        cfg.Token.GuestTTL,
	}, opts...)

	return &appStack{
		kv:      kv,
		store:   store,
		codec:   codec,
		factory: factory,
	}, nil
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
