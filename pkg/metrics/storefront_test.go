package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStorefrontMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewStorefrontMetrics(reg)
	metrics.ObserveCheckout(OutcomeSuccess, 250*time.Millisecond)
	metrics.ObserveCheckout(OutcomeInsufficientStock, 10*time.Millisecond)
	metrics.IncStockConflict()
	metrics.IncOrderTransition("cancelled")
	metrics.IncOrderTransition("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "storefront_checkout_total", "outcome", OutcomeSuccess); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "storefront_checkout_total", "outcome", OutcomeInsufficientStock); err != nil {
		t.Fatalf("fetch insufficient stock: %v", err)
	} else if got != 1 {
		t.Fatalf("expected insufficient_stock=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "storefront_checkout_duration_seconds", "outcome", OutcomeSuccess); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "storefront_order_transitions_total", "to", "unknown"); err != nil {
		t.Fatalf("fetch transition: %v", err)
	} else if got != 1 {
		t.Fatalf("expected unknown transition=1, got %f", got)
	}

	mf := findMetricFamily(mfs, "storefront_stock_conflicts_total")
	if mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one stock conflict")
	}
}

func TestStorefrontMetricsNilSafe(t *testing.T) {
	var nilMetrics *StorefrontMetrics
	nilMetrics.ObserveCheckout(OutcomeFailure, time.Second)
	nilMetrics.IncStockConflict()
	nilMetrics.IncOrderTransition("shipped")

	noop := NewStorefrontMetrics(nil)
	noop.ObserveCheckout(OutcomeFailure, time.Second)
	noop.IncStockConflict()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
