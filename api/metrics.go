package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/invoicepatch/payroll-engine/payroll"
)

// Metrics holds the Prometheus collectors for the payroll API on a
// dedicated registry.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	schedulesTotal     *prometheus.CounterVec
	schedulePeriods    prometheus.Histogram
	paymentAdjustments *prometheus.CounterVec
	exportsTotal       *prometheus.CounterVec
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payroll_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payroll_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		schedulesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payroll_schedules_calculated_total",
			Help: "Schedule calculations by outcome (ok, client_error, error).",
		}, []string{"outcome"}),
		schedulePeriods: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "payroll_schedule_periods",
			Help:    "Number of periods per calculated schedule.",
			Buckets: []float64{1, 6, 13, 26, 52, 104, 260, 520},
		}),
		paymentAdjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payroll_payment_adjustments_total",
			Help: "Payment dates moved off a non-business day, by first skip reason.",
		}, []string{"reason"}),
		exportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payroll_exports_total",
			Help: "Schedule exports by format.",
		}, []string{"format"}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.schedulesTotal,
		m.schedulePeriods,
		m.paymentAdjustments,
		m.exportsTotal,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves the /metrics exposition.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

func (m *Metrics) observeSchedule(outcome string, s *payroll.Schedule) {
	if m == nil {
		return
	}
	m.schedulesTotal.WithLabelValues(outcome).Inc()
	if s != nil {
		m.schedulePeriods.Observe(float64(s.Len()))
	}
}

func (m *Metrics) observePayments(payments []payroll.PaymentAdjustment) {
	if m == nil {
		return
	}
	for _, p := range payments {
		if p.Shifted && len(p.Reasons) > 0 {
			m.paymentAdjustments.WithLabelValues(p.Reasons[0]).Inc()
		}
	}
}

func (m *Metrics) observeExport(format string) {
	if m == nil {
		return
	}
	m.exportsTotal.WithLabelValues(format).Inc()
}
