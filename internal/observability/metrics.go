package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RideTransitions counts lifecycle operations by operation and result.
	RideTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ride_transitions_total",
		Help: "Ride lifecycle operations grouped by operation and outcome.",
	}, []string{"operation", "result"})

	// FareQuotes counts external fare estimates by outcome.
	FareQuotes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fare_quotes_total",
		Help: "External fare estimates grouped by outcome.",
	}, []string{"result"})

	// FareQuoteDuration observes the latency of the external estimate pipeline.
	FareQuoteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fare_quote_duration_seconds",
		Help:    "Time spent computing an external fare estimate.",
		Buckets: prometheus.DefBuckets,
	})

	// Payments counts settlement attempts by method and result.
	Payments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_total",
		Help: "Payment attempts grouped by method and outcome.",
	}, []string{"method", "result"})

	// HTTPRequests counts served requests by route and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests grouped by route, method and status.",
	}, []string{"route", "method", "status"})
)
