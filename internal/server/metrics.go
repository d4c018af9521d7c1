package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/UhthredB/tsaheylu-sub000/pkg/metrics"
)

// MetricsServer manages the Prometheus metrics HTTP server.
type MetricsServer struct {
	server   *http.Server
	registry *prometheus.Registry
	port     int
	endpoint string
}

// NewMetricsServer creates a new metrics server instance.
func NewMetricsServer(port int, endpoint string) *MetricsServer {
	return &MetricsServer{
		port:     port,
		endpoint: endpoint,
	}
}

// Setup configures the metrics server and registers the runtime and agent collectors.
func (m *MetricsServer) Setup() error {
	m.registry = prometheus.NewRegistry()

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := registerAll(m.registry, metrics.Collectors()); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(m.endpoint, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	m.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", m.port),
		Handler: mux,
	}

	return nil
}

// Handler returns the HTTP handler, mainly for tests.
func (m *MetricsServer) Handler() http.Handler {
	return m.server.Handler
}

func registerAll(reg prometheus.Registerer, cs []prometheus.Collector) error {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return nil
}

// Start begins serving metrics on the configured port.
func (m *MetricsServer) Start(ctx context.Context) error {
	go func() {
		logrus.Infof("metrics server listening on port %d%s", m.port, m.endpoint)
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Errorf("metrics server failed: %v", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down metrics server...")
	if err := m.server.Shutdown(ctx); err != nil {
		return err
	}
	logrus.Info("metrics server stopped")
	return nil
}
