package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Reservations counts seat reservation attempts by result
	// (confirmed|seat_taken|duplicate_email|closed|error).
	Reservations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatplan_reservations_total",
			Help: "Total number of seat reservation attempts",
		},
		[]string{"result"},
	)

	// Cancellations counts cancellation attempts by result
	// (cancelled|invalid_token|too_late|error).
	Cancellations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatplan_cancellations_total",
			Help: "Total number of reservation cancellation attempts",
		},
		[]string{"result"},
	)

	// EmailsSent counts outbound emails by kind (confirmation|reminder) and result (sent|failed).
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatplan_emails_total",
			Help: "Total number of outbound email deliveries",
		},
		[]string{"kind", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seatplan_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
