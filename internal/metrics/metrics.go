package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climateapi_http_requests_total",
			Help: "Total HTTP requests served",
		},
		[]string{"route", "status"},
	)

	HTTPRequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "climateapi_http_request_latency_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	QueryLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "climateapi_query_latency_seconds",
			Help:    "Dataset query latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	QueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climateapi_query_errors_total",
			Help: "Dataset queries that returned an error",
		},
		[]string{"query"},
	)

	DatasetFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "climateapi_dataset_fetches_total",
			Help: "Dataset downloads attempted over FTP",
		},
		[]string{"status"},
	)
)
