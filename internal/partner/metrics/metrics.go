package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partnerhub_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "partnerhub_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	Searches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partnerhub_searches_total",
		Help: "The total number of directory searches",
	})

	SearchResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "partnerhub_search_results",
		Help:    "Number of partners matching a directory search",
		Buckets: []float64{0, 1, 5, 12, 25, 50, 100, 250},
	})

	ComparisonRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partnerhub_comparison_rejections_total",
		Help: "Selections rejected because the comparison was full",
	})

	CacheLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partnerhub_cache_loads_total",
			Help: "Loads of the all-partners cache by result",
		},
		[]string{"result"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partnerhub_events_published_total",
			Help: "Kafka events written by type",
		},
		[]string{"event_type"},
	)

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partnerhub_events_dropped_total",
		Help: "Events dropped because the producer buffer was full",
	})

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partnerhub_rate_limited_total",
			Help: "Requests rejected by the per-IP rate limiter",
		},
		[]string{"route"},
	)
)
