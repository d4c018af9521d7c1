package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/UhthredB/tsaheylu-sub000/pkg/metrics"
)

func TestMetricsServer_ExposesAgentCollectors(t *testing.T) {
	m := NewMetricsServer(0, "/metrics")
	if err := m.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	metrics.ObserveRequest("GET", 200)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "tsaheylu_platform_requests_total") {
		t.Error("agent collectors not exposed")
	}
}

func TestGRPCServer_HealthFollowsSuspension(t *testing.T) {
	s := NewGRPCServer(0)
	if err := s.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Shutdown(context.Background())

	conn, err := grpc.NewClient(s.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	client := grpc_health_v1.NewHealthClient(conn)

	check := func() grpc_health_v1.HealthCheckResponse_ServingStatus {
		t.Helper()
		resp, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: HeartbeatService})
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		return resp.Status
	}

	if got := check(); got != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("initial status = %v", got)
	}
	s.SetSuspended(true)
	if got := check(); got != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("suspended status = %v", got)
	}
	s.SetSuspended(false)
	if got := check(); got != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("resumed status = %v", got)
	}
}
