package server

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/UhthredB/tsaheylu-sub000/pkg/common"
)

// TelemetryConfig selects how spans leave the process.
type TelemetryConfig struct {
	ServiceName string
	Environment string
	AgentName   string
	// ZipkinEndpoint is where spans are exported; empty keeps tracing in-process only.
	ZipkinEndpoint string
}

// SetupTelemetry initializes OpenTelemetry tracer and propagators.
// Returns a shutdown function that should be called on application shutdown.
//
// Trace context propagation supports B3 (Zipkin), W3C TraceContext and W3C Baggage.
func SetupTelemetry(ctx context.Context, cfg TelemetryConfig) (func(context.Context) error, error) {
	tracerProvider, err := common.NewTracerProvider(cfg.ServiceName, cfg.Environment, cfg.AgentName, cfg.ZipkinEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}

	otel.SetTracerProvider(tracerProvider)
	logrus.Infof("set tracer provider: (name: %s environment: %s agent: %s)", cfg.ServiceName, cfg.Environment, cfg.AgentName)

	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			b3.New(),
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)
	logrus.Infof("set text map propagator")

	shutdown := func(ctx context.Context) error {
		logrus.Info("shutting down telemetry...")
		if err := tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
		logrus.Info("telemetry stopped")
		return nil
	}

	return shutdown, nil
}
