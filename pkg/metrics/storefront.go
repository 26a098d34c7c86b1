package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes used as label values.
const (
	OutcomeSuccess           = "success"
	OutcomeEmptyCart         = "empty_cart"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeCouponInvalid     = "coupon_invalid"
	OutcomeFailure           = "failure"
)

// StorefrontMetrics records checkout and order lifecycle activity.
type StorefrontMetrics struct {
	checkouts      *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	stockConflicts prometheus.Counter
	transitions    *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_checkout_duration_seconds",
		Help:    "Duration of checkout attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	stockConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_stock_conflicts_total",
		Help: "Stock decrements rejected because the quantity was no longer available.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_transitions_total",
		Help: "Order status changes by target status.",
	}, []string{"to"})
	reg.MustRegister(checkouts, duration, stockConflicts, transitions)
	return &StorefrontMetrics{
		checkouts:      checkouts,
		duration:       duration,
		stockConflicts: stockConflicts,
		transitions:    transitions,
	}
}

// ObserveCheckout counts one checkout attempt and records how long it took.
func (m *StorefrontMetrics) ObserveCheckout(outcome string, elapsed time.Duration) {
	if m == nil || m.checkouts == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.checkouts.WithLabelValues(label).Inc()
	m.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}

func (m *StorefrontMetrics) IncStockConflict() {
	if m == nil || m.stockConflicts == nil {
		return
	}
	m.stockConflicts.Inc()
}

// IncOrderTransition counts an order moving to status to.
func (m *StorefrontMetrics) IncOrderTransition(to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(to)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
