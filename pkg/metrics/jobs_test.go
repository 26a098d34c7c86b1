package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestJobMetricsExportsRunsAndDeletes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewJobMetrics(reg)
	metrics.ObserveDuration("cart-cleanup", 250*time.Millisecond)
	metrics.IncSuccess("cart-cleanup")
	metrics.IncFailure("outbox-retention")
	metrics.AddDeleted("cart-cleanup", 4)
	metrics.AddDeleted("cart-cleanup", 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	runs := findMetricFamily(mfs, "storefront_job_runs_total")
	if runs == nil {
		t.Fatal("runs metric missing")
	}
	if got := sumWhere(runs.GetMetric(), "result", "failure"); got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}
	if got := sumWhere(runs.GetMetric(), "result", "success"); got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "storefront_job_rows_deleted_total", "job", "cart-cleanup"); err != nil {
		t.Fatalf("fetch deleted: %v", err)
	} else if got != 4 {
		t.Fatalf("expected deleted=4, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "storefront_job_duration_seconds", "job", "cart-cleanup"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestJobMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewJobMetrics(nil)
	metrics.IncSuccess("job")
	metrics.AddDeleted("job", 3)

	var nilMetrics *JobMetrics
	nilMetrics.IncFailure("job")
}

func sumWhere(metrics []*dto.Metric, label, value string) float64 {
	var total float64
	for _, metric := range metrics {
		if matchesLabel(metric.GetLabel(), label, value) {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}
