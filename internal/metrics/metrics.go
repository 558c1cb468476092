package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics provides observability for the API and the importer.
// Tracks request counts, request and store query durations, and imported rows.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	QueryDuration   *prometheus.HistogramVec
	ImportedTotal   *prometheus.CounterVec
}

// New creates a new Metrics instance with every collector registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "camara_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "camara_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route",
			Buckets: durationBuckets,
		}, []string{"method", "route"}),
		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "camara_store_query_duration_seconds",
			Help:    "Duration of store operations, each in its own transaction",
			Buckets: durationBuckets,
		}, []string{"operation", "outcome"}),
		ImportedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "camara_import_records_total",
			Help: "Records processed by the importer by entity and result",
		}, []string{"entity", "result"}),
	}
}

// ObserveQuery records the duration of a store operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveQuery(operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.QueryDuration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
}

// IncrementImported records n processed records of entity.
func (m *Metrics) IncrementImported(entity, result string, n int) {
	m.ImportedTotal.WithLabelValues(entity, result).Add(float64(n))
}

// Middleware records every request against its route pattern, so path
// parameters do not explode label cardinality. Errors from the chain are
// rendered by the app's error handler first, so the recorded status is the
// one sent to the client.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		route := c.Route().Path
		status := strconv.Itoa(c.Response().StatusCode())
		m.RequestsTotal.WithLabelValues(c.Method(), route, status).Inc()
		m.RequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return nil
	}
}
