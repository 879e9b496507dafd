package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request-level metadata for the API server.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

// NewHTTPMetrics registers the request metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests processed, labeled by method, route, and status.",
	}, []string{"method", "route", "status"})
	reg.MustRegister(duration, requests)
	return &HTTPMetrics{
		duration: duration,
		requests: requests,
	}
}

// ObserveRequest records one completed request.
func (h *HTTPMetrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if h == nil {
		return
	}
	method = normalizeLabel(method)
	route = normalizeLabel(route)
	if h.duration != nil {
		h.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
	}
	if h.requests != nil {
		h.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
}

// OrderMetrics tracks checkout outcomes.
type OrderMetrics struct {
	created  *prometheus.CounterVec
	paid     *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewOrderMetrics registers the checkout metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created, labeled by payment method.",
	}, []string{"payment_method"})
	paid := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_paid_total",
		Help: "Orders confirmed paid after gateway verification.",
	}, []string{"payment_method"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_init_failures_total",
		Help: "Payment initializations that failed after order creation.",
	}, []string{"payment_method"})
	reg.MustRegister(created, paid, failures)
	return &OrderMetrics{
		created:  created,
		paid:     paid,
		failures: failures,
	}
}

// IncCreated increments the created counter for the payment method.
func (o *OrderMetrics) IncCreated(paymentMethod string) {
	if o == nil || o.created == nil {
		return
	}
	o.created.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncPaid increments the paid counter for the payment method.
func (o *OrderMetrics) IncPaid(paymentMethod string) {
	if o == nil || o.paid == nil {
		return
	}
	o.paid.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncPaymentFailure increments the failure counter for the payment method.
func (o *OrderMetrics) IncPaymentFailure(paymentMethod string) {
	if o == nil || o.failures == nil {
		return
	}
	o.failures.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
