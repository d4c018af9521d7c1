package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 30 * time.Second

// Run starts the servers and the heartbeat, and blocks until a shutdown signal is received.
// The heartbeat finishes its in-flight cycle before Run returns.
func (a *App) Run(ctx context.Context) error {
	if err := a.grpcServer.Start(ctx); err != nil {
		return err
	}
	if err := a.metricsServer.Start(ctx); err != nil {
		return err
	}

	logrus.Info("application started successfully")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.orchestrator.Run(ctx); err != nil {
		logrus.Errorf("heartbeat stopped with error: %v", err)
	}

	logrus.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down all application components.
//
// Components are shut down in reverse dependency order:
// 1. Stop accepting new requests (gRPC + metrics servers)
// 2. Close external connections and files (Redis, audit log)
// 3. Flush telemetry data (OpenTelemetry)
//
// Shutdown errors are logged but don't stop the shutdown sequence.
func (a *App) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down application...")

	// ============================================================
	// Step 1: Shutdown servers (stop accepting new requests)
	// ============================================================
	if a.grpcServer != nil {
		if err := a.grpcServer.Shutdown(ctx); err != nil {
			logrus.Errorf("gRPC server shutdown error: %v", err)
		}
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			logrus.Errorf("metrics server shutdown error: %v", err)
		}
	}

	// ============================================================
	// Step 2: Close external connections
	// ============================================================
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			logrus.Errorf("Redis close error: %v", err)
		}
	}
	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			logrus.Errorf("audit log close error: %v", err)
		}
	}

	// ============================================================
	// Step 3: Flush telemetry data
	// ============================================================
	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			logrus.Errorf("telemetry shutdown error: %v", err)
		}
	}

	logrus.Info("application shutdown complete")
	return nil
}
