package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plmdeck_plm_request_duration_seconds",
			Help:    "PLM backend request duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method"},
	)

	PLMRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plmdeck_plm_request_total",
			Help: "Total PLM backend requests by status",
		},
		[]string{"status"},
	)

	PLMPagesFetched = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plmdeck_plm_pages_per_listing",
			Help:    "Pages fetched per full listing walk",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)

	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plmdeck_ai_request_duration_seconds",
			Help:    "Generative API request duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	AIFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plmdeck_ai_fallback_total",
			Help: "Summaries served by the deterministic fallback",
		},
		[]string{"reason"},
	)

	SlidesGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plmdeck_slides_generated_total",
			Help: "Slides created or refreshed",
		},
		[]string{"operation", "record_type"},
	)

	BatchRecordsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plmdeck_batch_records_skipped_total",
			Help: "Records skipped inside multi-record batches",
		},
	)

	SessionValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plmdeck_session_validations_total",
			Help: "Session validity checks by outcome",
		},
		[]string{"source", "result"},
	)

	ListingCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plmdeck_listing_cache_hits_total",
			Help: "Listing cache hits",
		},
	)

	ListingCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plmdeck_listing_cache_misses_total",
			Help: "Listing cache misses",
		},
	)
)

func Init() {
	prometheus.MustRegister(PLMRequestDuration)
	prometheus.MustRegister(PLMRequestTotal)
	prometheus.MustRegister(PLMPagesFetched)
	prometheus.MustRegister(AIRequestDuration)
	prometheus.MustRegister(AIFallbackTotal)
	prometheus.MustRegister(SlidesGeneratedTotal)
	prometheus.MustRegister(BatchRecordsSkipped)
	prometheus.MustRegister(SessionValidations)
	prometheus.MustRegister(ListingCacheHits)
	prometheus.MustRegister(ListingCacheMisses)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
