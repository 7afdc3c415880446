package metrics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/efficiency"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ErrorTypeValidation       = "validation"
	ErrorTypeUpstream         = "upstream"
	ErrorTypeDeadlineExceeded = "deadline_exceeded"
	ErrorTypeUnknown          = "unknown"
)

// Metrics exposes engine and HTTP signals. It implements efficiency.Observer.
type Metrics struct {
	loadDuration prometheus.Histogram
	loadErrors   *prometheus.CounterVec
	runDuration  prometheus.Histogram
	invoiceLines *prometheus.CounterVec
	invoices     prometheus.Counter
	skipped      prometheus.Counter
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

var _ efficiency.Observer = (*Metrics)(nil)

// New registers the collectors with registerer; nil means the default registry.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "efficiency",
			Name:      "load_duration_seconds",
			Help:      "Time spent fetching the records of one computation.",
			Buckets:   prometheus.DefBuckets,
		}),
		loadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "efficiency",
			Name:      "load_errors_total",
			Help:      "Failed record loads by error type.",
		}, []string{"error_type"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "efficiency",
			Name:      "reconcile_duration_seconds",
			Help:      "Time spent reconciling and aggregating one computation.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		invoiceLines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "efficiency",
			Name:      "invoice_lines_total",
			Help:      "Reconciled invoice lines by outcome.",
		}, []string{"outcome"}),
		invoices: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "efficiency",
			Name:      "invoices_total",
			Help:      "Qualifying invoices reconciled.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "efficiency",
			Name:      "invoices_skipped_total",
			Help:      "Voided or non-qualifying invoices ignored.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "efficiency",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "efficiency",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registerer.MustRegister(
		m.loadDuration,
		m.loadErrors,
		m.runDuration,
		m.invoiceLines,
		m.invoices,
		m.skipped,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) ObserveLoad(elapsed time.Duration, err error) {
	m.loadDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.loadErrors.WithLabelValues(ClassifyError(err)).Inc()
	}
}

func (m *Metrics) ObserveRun(elapsed time.Duration, stats efficiency.ReconcileStats) {
	m.runDuration.Observe(elapsed.Seconds())
	m.invoices.Add(float64(stats.Invoices))
	m.skipped.Add(float64(stats.Skipped))

	outcomes := map[string]int{
		"full":         stats.Full,
		"partial":      stats.Partial,
		"redundant":    stats.Redundant,
		"unordered":    stats.Unordered,
		"out_of_scope": stats.OutOfScope,
	}
	for outcome, n := range outcomes {
		if n > 0 {
			m.invoiceLines.WithLabelValues(outcome).Add(float64(n))
		}
	}
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ClassifyError maps an error to a low-cardinality label.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeDeadlineExceeded
	case domain.IsValidationError(err):
		return ErrorTypeValidation
	case domain.IsUpstreamError(err):
		return ErrorTypeUpstream
	default:
		return ErrorTypeUnknown
	}
}
