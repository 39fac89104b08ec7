// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesTotal counts classified inbound updates by kind.
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_updates_total",
			Help: "Inbound updates processed, labeled by classified kind.",
		},
		[]string{"method"},
	)

	// APIRequestsTotal counts outbound Telegram API calls.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_api_requests_total",
			Help: "Outbound Telegram API calls, labeled by method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	// AuditAppendFailures counts audit log writes that did not land.
	AuditAppendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_audit_append_failures_total",
			Help: "Audit log append attempts that failed.",
		},
	)

	// HTTPRequestDuration observes webhook endpoint latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)
)

// Outcome labels for APIRequestsTotal.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)
