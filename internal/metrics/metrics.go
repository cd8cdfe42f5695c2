// Package metrics holds Prometheus instruments that are used across the
// API.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apikit_http_requests_total",
			Help: "HTTP requests served, labelled by method and status class.",
		},
		[]string{"method", "class"},
	)

	ViewsTrackedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "apikit_views_tracked_total",
			Help: "Cumulative number of page views recorded via POST /stats.",
		})

	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "apikit_rate_limited_total",
			Help: "Anonymous submissions or messages rejected by the per-IP ceiling.",
		})

	UploadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "apikit_uploads_total",
			Help: "Cumulative number of accepted image uploads.",
		})
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		ViewsTrackedTotal,
		RateLimitedTotal,
		UploadsTotal,
	)
}
