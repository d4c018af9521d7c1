// Package metrics defines the agent's Prometheus collectors. They are
// registered on the metrics server registry via Collectors().
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tsaheylu"

var (
	PlatformRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "platform_requests_total",
			Help:      "Outbound platform calls that reached the network, by method and status class",
		},
		[]string{"method", "status"},
	)

	RateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Calls refused by the local window or by the platform",
		},
		[]string{"source"},
	)

	SuspensionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suspensions_total",
			Help:      "Suspensions signalled by the platform",
		},
	)

	Suspended = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "suspended",
			Help:      "1 while the account is suspended",
		},
	)

	ChallengesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_total",
			Help:      "Verification challenges by outcome",
		},
		[]string{"outcome"},
	)

	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Orchestrator actions by phase and kind",
		},
		[]string{"phase", "kind"},
	)

	PhaseErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_errors_total",
			Help:      "Errors isolated inside a heartbeat phase",
		},
		[]string{"phase"},
	)

	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heartbeat_cycles_total",
			Help:      "Heartbeat cycles by result",
		},
		[]string{"result"},
	)

	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "heartbeat_cycle_duration_seconds",
			Help:      "Wall time spent in one heartbeat cycle",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	DailyComments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "daily_comments",
			Help:      "Comments counted against the daily cap",
		},
	)

	FunnelContacts = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "funnel_contacts",
			Help:      "Contacts per journey stage",
		},
		[]string{"stage"},
	)
)

// Collectors returns every collector for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		PlatformRequestsTotal,
		RateLimitedTotal,
		SuspensionsTotal,
		Suspended,
		ChallengesTotal,
		ActionsTotal,
		PhaseErrorsTotal,
		CyclesTotal,
		CycleDuration,
		DailyComments,
		FunnelContacts,
	}
}

// StatusClass buckets an HTTP status code, with 0 meaning the call never got a response.
func StatusClass(code int) string {
	if code <= 0 {
		return "error"
	}
	return strconv.Itoa(code/100) + "xx"
}

// ObserveRequest counts one network call.
func ObserveRequest(method string, status int) {
	PlatformRequestsTotal.WithLabelValues(method, StatusClass(status)).Inc()
}

// SetSuspended flips the suspension gauge.
func SetSuspended(suspended bool) {
	if suspended {
		Suspended.Set(1)
		return
	}
	Suspended.Set(0)
}
