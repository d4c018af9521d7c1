package app

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/UhthredB/tsaheylu-sub000/internal/bootstrap"
	"github.com/UhthredB/tsaheylu-sub000/internal/config"
	"github.com/UhthredB/tsaheylu-sub000/internal/server"
	"github.com/UhthredB/tsaheylu-sub000/pkg/audit"
	"github.com/UhthredB/tsaheylu-sub000/pkg/heartbeat"
	"github.com/UhthredB/tsaheylu-sub000/pkg/journey"
	"github.com/UhthredB/tsaheylu-sub000/pkg/state"
)

// App holds all application dependencies and manages the application lifecycle.
type App struct {
	cfg               *config.Config
	grpcServer        *server.GRPCServer
	metricsServer     *server.MetricsServer
	redisClient       *redis.Client
	recorder          *audit.FileRecorder
	orchestrator      *heartbeat.Orchestrator
	shutdownTelemetry func(context.Context) error
}

// New creates and initializes a new application instance.
//
// Components are initialized in dependency order:
// 1. Telemetry (so every later span is exported)
// 2. Redis (only for the redis state backend)
// 3. State store, audit log, heartbeat config
// 4. Challenge solver and platform client (owns the request budget)
// 5. Journey ledger and collaborators
// 6. Heartbeat orchestrator
// 7. Servers (gRPC health, metrics)
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	// ============================================================
	// Step 1: Setup telemetry
	// ============================================================
	telemetry := server.TelemetryConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		AgentName:   cfg.AgentName,
	}
	if cfg.OtelEnabled {
		telemetry.ZipkinEndpoint = cfg.ZipkinEndpoint
	}
	shutdownTelemetry, err := server.SetupTelemetry(ctx, telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to setup telemetry: %w", err)
	}
	app.shutdownTelemetry = shutdownTelemetry

	// ============================================================
	// Step 2: Initialize Redis
	// ============================================================
	if cfg.StateBackend == config.BackendRedis {
		if err := app.initRedis(ctx); err != nil {
			return nil, fmt.Errorf("failed to init Redis: %w", err)
		}
	}

	// ============================================================
	// Step 3: State store, audit log and heartbeat config
	// ============================================================
	var redisClient redis.UniversalClient
	if app.redisClient != nil {
		redisClient = app.redisClient
	}
	store, err := bootstrap.InitStateStore(cfg, redisClient)
	if err != nil {
		return nil, err
	}

	app.recorder, err = audit.NewFileRecorder(cfg.AuditLogPath, cfg.AgentName)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	hb, err := bootstrap.LoadHeartbeatConfig(cfg)
	if err != nil {
		return nil, err
	}
	logrus.Infof("loaded heartbeat configuration from %s", cfg.HeartbeatConfigPath)

	// ============================================================
	// Step 4: Challenge solver and platform client
	// ============================================================
	solver, err := bootstrap.InitSolver(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client, err := bootstrap.InitPlatformClient(ctx, cfg, store, solver, app.recorder)
	if err != nil {
		return nil, err
	}

	// ============================================================
	// Step 5: Journey ledger and collaborators
	// ============================================================
	ledger, err := journey.Open(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("failed to open journey ledger: %w", err)
	}
	deps := bootstrap.InitCollaborators(hb)

	// ============================================================
	// Step 6: Heartbeat orchestrator
	// ============================================================
	app.orchestrator, err = bootstrap.InitOrchestrator(client, ledger, deps, hb, app.recorder)
	if err != nil {
		return nil, err
	}

	// ============================================================
	// Step 7: Setup servers
	// ============================================================
	app.grpcServer = server.NewGRPCServer(cfg.GRPCPort)
	if err := app.grpcServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup gRPC server: %w", err)
	}
	app.orchestrator.OnSuspendedChange(app.grpcServer.SetSuspended)

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics")
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	logrus.Info("application initialized successfully")

	return app, nil
}

// initRedis initializes the Redis client.
func (a *App) initRedis(ctx context.Context) error {
	client, err := ConnectRedis(ctx, a.cfg)
	if err != nil {
		return err
	}
	a.redisClient = client
	logrus.Info("Redis client initialized")
	return nil
}

// ConnectRedis dials Redis and pings it with exponential backoff.
func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisHost + ":" + cfg.RedisPort,
		Password:     cfg.RedisPassword,
		DB:           0,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	maxRetries := backoff.WithMaxRetries(b, uint64(cfg.RedisMaxRetries))

	err := backoff.Retry(
		func() error {
			_, err := client.Ping(ctx).Result()
			if err != nil {
				logrus.Warnf("Redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		backoff.WithContext(maxRetries, ctx),
	)
	if err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// OpenStore opens the configured state store for read-only commands.
// The returned close function releases the Redis connection, if any.
func OpenStore(ctx context.Context, cfg *config.Config) (state.Store, func(), error) {
	if cfg.StateBackend != config.BackendRedis {
		store, err := bootstrap.InitStateStore(cfg, nil)
		return store, func() {}, err
	}

	client, err := ConnectRedis(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	store, err := bootstrap.InitStateStore(cfg, client)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return store, func() { client.Close() }, nil
}
