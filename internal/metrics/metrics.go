package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several instances can coexist in tests.
// All recording methods are safe on a nil *Metrics.
type Metrics struct {
	Registry *prometheus.Registry

	bookingsCreated         prometheus.Counter
	bookingsCancelled       prometheus.Counter
	paymentsProcessed       *prometheus.CounterVec
	paymentsRefunded        prometheus.Counter
	notificationsDispatched *prometheus.CounterVec
	analyticsDegraded       prometheus.Counter
	requestDuration         *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Bookings persisted.",
		}),
		bookingsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookings_cancelled_total",
			Help: "Bookings moved to CANCELLED.",
		}),
		paymentsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_processed_total",
			Help: "Payment processing attempts by resulting status.",
		}, []string{"status"}),
		paymentsRefunded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payments_refunded_total",
			Help: "Payments moved to REFUNDED.",
		}),
		notificationsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Notification deliveries by transport result.",
		}, []string{"result"}),
		analyticsDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_degraded_total",
			Help: "System stats requests answered with the degraded zero result.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.bookingsCreated,
		m.bookingsCancelled,
		m.paymentsProcessed,
		m.paymentsRefunded,
		m.notificationsDispatched,
		m.analyticsDegraded,
		m.requestDuration,
	)
	return m
}

func (m *Metrics) BookingCreated() {
	if m != nil {
		m.bookingsCreated.Inc()
	}
}

func (m *Metrics) BookingCancelled() {
	if m != nil {
		m.bookingsCancelled.Inc()
	}
}

func (m *Metrics) PaymentProcessed(status string) {
	if m != nil {
		m.paymentsProcessed.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) PaymentRefunded() {
	if m != nil {
		m.paymentsRefunded.Inc()
	}
}

// NotificationDispatched records a delivery attempt; result is "delivered" or "failed".
func (m *Metrics) NotificationDispatched(result string) {
	if m != nil {
		m.notificationsDispatched.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) AnalyticsDegraded() {
	if m != nil {
		m.analyticsDegraded.Inc()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Middleware observes request latency labelled with the chi route pattern,
// which keeps path parameters out of the label set.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
