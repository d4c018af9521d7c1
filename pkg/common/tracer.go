package common

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewTracerProvider creates a tracer provider tagged with the service metadata.
// Spans are exported to Zipkin when zipkinEndpoint is set and dropped otherwise.
func NewTracerProvider(serviceName, environment, agentName, zipkinEndpoint string) (*sdktrace.TracerProvider, error) {
	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("environment", environment),
		attribute.String("agent.name", agentName),
	)

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}

	if zipkinEndpoint != "" {
		exporter, err := zipkin.New(zipkinEndpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create zipkin exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	return sdktrace.NewTracerProvider(opts...), nil
}
