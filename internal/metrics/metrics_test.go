package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.BookingCreated()
	m.BookingCreated()
	m.BookingCancelled()
	m.PaymentProcessed("SUCCESS")
	m.PaymentProcessed("FAILED")
	m.PaymentProcessed("SUCCESS")
	m.PaymentRefunded()
	m.NotificationDispatched("failed")
	m.AnalyticsDegraded()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookingsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingsCancelled))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.paymentsProcessed.WithLabelValues("SUCCESS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paymentsProcessed.WithLabelValues("FAILED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paymentsRefunded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notificationsDispatched.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyticsDegraded))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.BookingCreated()
	m.PaymentProcessed("SUCCESS")
	m.NotificationDispatched("delivered")
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/bookings/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", m.Handler())

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest("GET", "/bookings/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `route="/bookings/{id}"`), body)
	assert.Contains(t, body, "bookings_created_total")
}
