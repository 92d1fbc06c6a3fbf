// Package metrics defines the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentgate_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contentgate_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	ContentWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentgate_content_writes_total",
			Help: "Content rows created, updated or deleted per group",
		},
		[]string{"group", "op"},
	)

	AggregatedRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "contentgate_search_merged_rows",
			Help:    "Rows merged in memory per universal search",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		},
	)

	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentgate_billing_webhook_events_total",
			Help: "Billing webhook events by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	VipExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contentgate_vip_expired_total",
			Help: "Users whose VIP flag was cleared by the expiry sweep",
		},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "contentgate_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)
