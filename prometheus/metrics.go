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
	// ScanCounter counts settlement attempts by terminal outcome
	// (settled, voucher_issued, or an error kind).
	ScanCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fidelisation_scans_total",
			Help: "Total number of receipt scan attempts by outcome",
		},
		[]string{"outcome"},
	)

	// VoucherIssuedCounter counts vouchers issued by threshold crossings
	VoucherIssuedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fidelisation_vouchers_issued_total",
			Help: "Total number of vouchers issued",
		},
	)

	// CreditsDistributedCounter accumulates credits granted by settlements
	CreditsDistributedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fidelisation_credits_distributed_total",
			Help: "Total credits granted by successful settlements",
		},
	)

	// MerchantOperationCounter counts admin merchant operations
	MerchantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fidelisation_merchant_operations_total",
			Help: "Total number of merchant admin operations",
		},
		[]string{"operation"}, // "create", "list", "get"
	)

	// HTTPRequestCounter counts HTTP requests by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fidelisation_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Histogram metrics
var (
	// RequestDuration records HTTP request durations
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fidelisation_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// OCRDuration records text-extraction provider latency
	OCRDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fidelisation_ocr_duration_seconds",
			Help:    "Duration of OCR provider calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// DBOperationDuration records database operation durations
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fidelisation_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "settlement", "balance", "voucher", "query"
	)
)

func init() {
	prometheus.MustRegister(ScanCounter)
	prometheus.MustRegister(VoucherIssuedCounter)
	prometheus.MustRegister(CreditsDistributedCounter)
	prometheus.MustRegister(MerchantOperationCounter)
	prometheus.MustRegister(HTTPRequestCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(OCRDuration)
	prometheus.MustRegister(DBOperationDuration)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// RecordScanOutcome records the terminal state of one settlement attempt
func RecordScanOutcome(outcome string) {
	ScanCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordMerchantOperation records a merchant admin operation
func RecordMerchantOperation(operation string) {
	MerchantOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// TrackDBOperation measures a database operation duration
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}
