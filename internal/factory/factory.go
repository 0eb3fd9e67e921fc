package factory

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/dependencies/clock"
	"github.com/gateward/gateward/internal/dependencies/random"
	"github.com/gateward/gateward/internal/gateway"
	"github.com/gateward/gateward/internal/records"
	"github.com/gateward/gateward/internal/storage"
	"github.com/gateward/gateward/internal/storage/memory"
	redisstorage "github.com/gateward/gateward/internal/storage/redis"
	"github.com/gateward/gateward/internal/verification"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Config holds configuration for the application factory
type Config struct {
	// Config is the engine configuration snapshot (required)
	Config *config.Config
	// Logger is the application logger (optional)
	Logger *slog.Logger
	// EngineOptions tunes settle delay and supervisor period
	EngineOptions verification.Options
}

// App contains all wired application components
type App struct {
	Backend storage.RecordStore
	Records *records.Store
	Engine  *verification.Engine
	Hub     *gateway.Hub
	Gateway *gateway.Server
	Clock   clock.Clock
	Random  random.Random

	closeBackend func() error
}

// New creates an application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var backend storage.RecordStore
	closeBackend := func() error { return nil }

	switch cfg.Config.Storage.Type {
	case StorageTypeMemory, "":
		backend = memory.New()
	case StorageTypeRedis:
		redisStore, err := redisstorage.New(redisstorage.Config{
			URL:          cfg.Config.Storage.Redis.URL,
			PoolSize:     cfg.Config.Storage.Redis.PoolSize,
			MinIdleConns: cfg.Config.Storage.Redis.MinIdleConns,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		backend = redisStore
		closeBackend = redisStore.Close
	default:
		return nil, fmt.Errorf("invalid storage type %q", cfg.Config.Storage.Type)
	}

	clk := clock.New()
	rnd := random.New()

	recordStore := records.New(backend, clk, records.Config{
		Workers: cfg.Config.Storage.Workers,
	}, logger)

	hub := gateway.NewHub(logger)
	engine := verification.NewEngine(cfg.Config, recordStore, hub, clk, rnd, logger, cfg.EngineOptions)
	gatewayServer := gateway.NewServer(engine, hub, logger)

	return &App{
		Backend:      backend,
		Records:      recordStore,
		Engine:       engine,
		Hub:          hub,
		Gateway:      gatewayServer,
		Clock:        clk,
		Random:       rnd,
		closeBackend: closeBackend,
	}, nil
}

// Close stops the engine and releases storage resources
func (a *App) Close() error {
	a.Engine.Stop()
	a.Records.Close()
	return a.closeBackend()
}
