package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_service_requests_total",
			Help: "Total number of requests to listing service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listing_service_request_duration_seconds",
			Help:    "Duration of listing service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	listingViews = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listing_service_views_total",
			Help: "Total number of recorded listing views",
		},
	)

	listingSales = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listing_service_sales_total",
			Help: "Total number of listings marked sold",
		},
	)
)
