package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	checkoutTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_transitions_total",
			Help: "Checkout state transitions",
		},
		[]string{"from", "to"},
	)

	checkoutOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_outcomes_total",
			Help: "Finished checkout attempts by outcome",
		},
		[]string{"outcome"},
	)

	reconcileFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_reconcile_failures_total",
			Help: "Stock and price checks that failed open",
		},
	)

	cartMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Cart mutations by operation",
		},
		[]string{"op"},
	)

	outboxPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_outbox_published_total",
			Help: "Outbox events handed to the broker",
		},
		[]string{"event_type", "result"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(checkoutTransitionsTotal)
	prometheus.MustRegister(checkoutOutcomesTotal)
	prometheus.MustRegister(reconcileFailuresTotal)
	prometheus.MustRegister(cartMutationsTotal)
	prometheus.MustRegister(outboxPublishedTotal)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveHTTP(method, endpoint, status string, seconds float64) {
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(seconds)
}

func RecordCheckoutTransition(from, to string) {
	checkoutTransitionsTotal.WithLabelValues(from, to).Inc()
}

func RecordCheckoutOutcome(outcome string) {
	checkoutOutcomesTotal.WithLabelValues(outcome).Inc()
}

func RecordReconcileFailure() {
	reconcileFailuresTotal.Inc()
}

func RecordCartMutation(op string) {
	cartMutationsTotal.WithLabelValues(op).Inc()
}

func RecordOutboxPublish(eventType string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	outboxPublishedTotal.WithLabelValues(eventType, result).Inc()
}
