// Package metrics exposes operation counts, latencies and computed yields
// to prometheus.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"papermill_reel_tracker/reel"
)

type Metrics struct {
	reg *prometheus.Registry

	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	yield      prometheus.Histogram
	requests   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reeltrack_operations_total",
			Help: "Reel operations by outcome.",
		}, []string{"op", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reeltrack_operation_seconds",
			Help:    "Reel operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		yield: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reeltrack_yield_percent",
			Help:    "Yield of reels as they are ruled or corrected.",
			Buckets: []float64{70, 75, 80, 85, 87.5, 90, 92.5, 95, 97.5, 100, 105},
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reeltrack_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
	}
	m.reg.MustRegister(
		m.operations, m.latency, m.yield, m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Result names the outcome of an operation for the result label.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, reel.ErrValidation):
		return "invalid"
	case errors.Is(err, reel.ErrNotFound):
		return "not_found"
	case errors.Is(err, reel.ErrNotComputable):
		return "not_computable"
	case errors.Is(err, reel.ErrStore):
		return "store_error"
	}
	return "error"
}

func (m *Metrics) ObserveOperation(op string, err error, d time.Duration) {
	m.operations.WithLabelValues(op, Result(err)).Inc()
	m.latency.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) ObserveYield(percent float64) { m.yield.Observe(percent) }

// Middleware counts requests by matched route, so ids do not blow up the
// label set.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

var _ reel.Observer = (*Metrics)(nil)
