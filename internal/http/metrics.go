package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wishgift_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wishgift_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	contributionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wishgift_contributions_total",
		Help: "Accepted contributions by kind (gift or topup).",
	}, []string{"kind"})

	contributedCentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wishgift_contributed_cents_total",
		Help: "Total cents accepted into the ledger by kind.",
	}, []string{"kind"})

	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wishgift_rate_limited_requests_total",
		Help: "Requests rejected by the per-IP rate limiter.",
	})
)
