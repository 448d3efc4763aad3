package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Report generation counters
	ReportGenerationCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insight_report_generations_total",
			Help: "Total number of market-analysis report generations",
		},
	)

	// Live-insight generation counter
	LiveInsightCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insight_live_insights_total",
			Help: "Total number of live weather/traffic/news generations",
		},
	)

	// Brand statement generation counter by kind
	BrandGenerationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_brand_generations_total",
			Help: "Total number of brand statement generations by kind",
		},
		[]string{"kind"},
	)

	// Brand entity operation counter
	BrandOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_brand_operations_total",
			Help: "Total number of brand entity operations",
		},
		[]string{"kind", "operation"}, // operation is "create", "list", "update", "delete"
	)

	// Generation error counter
	GenerationErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_generation_errors_total",
			Help: "Total number of failed model generations",
		},
		[]string{"type"}, // type is "analysis", "live", or a brand kind
	)

	// LLM request counter and duration
	LLMRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_llm_requests_total",
			Help: "Total number of chat-completion API requests",
		},
		[]string{"model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insight_llm_request_duration_seconds",
			Help:    "Duration of chat-completion API requests in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"model", "status"},
	)

	// DB operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insight_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// HTTP request duration
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insight_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		ReportGenerationCounter,
		LiveInsightCounter,
		BrandGenerationCounter,
		BrandOperationCounter,
		GenerationErrorCounter,
		LLMRequestCounter,
		LLMRequestDuration,
		DBOperationDuration,
		HTTPRequestCounter,
		HTTPRequestDuration,
	)
}

// RecordLLMRequest records one chat-completion round-trip
func RecordLLMRequest(model, status string, duration time.Duration) {
	LLMRequestCounter.WithLabelValues(model, status).Inc()
	LLMRequestDuration.WithLabelValues(model, status).Observe(duration.Seconds())
}

// RecordGenerationError records a failed generation by type
func RecordGenerationError(genType string) {
	GenerationErrorCounter.WithLabelValues(genType).Inc()
}

// TrackDBOperation returns a function that records the duration of a database
// operation when called. Use with defer:
//
//	defer prometheus.TrackDBOperation("query")(time.Now())
func TrackDBOperation(operation string) func(time.Time) {
	return func(start time.Time) {
		DBOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// MetricsMiddleware creates an Echo middleware that records request metrics
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			HTTPRequestCounter.WithLabelValues(path, method, statusStr).Inc()
			HTTPRequestDuration.WithLabelValues(path, method, statusStr).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// GetPrometheusHandler returns an HTTP handler for exposing Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
