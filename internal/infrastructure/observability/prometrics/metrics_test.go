package prometrics

import (
	"testing"

	"github.com/Zhima-Mochi/foodtruck/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounterIsRegisteredOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New("foodtruck", reg)

	first := r.Counter("sales_recorded_total", "Recorded sales.", "month")
	second := r.Counter("sales_recorded_total", "Recorded sales.", "month")

	first.Add(1, observability.L("month", "2026-10"))
	second.Add(2, observability.L("month", "2026-10"))

	cv := first.(*counter).v
	if got := testutil.ToFloat64(cv.WithLabelValues("2026-10")); got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
	if n := testutil.CollectAndCount(cv); n != 1 {
		t.Fatalf("expected one series, got %d", n)
	}
}

func TestHistogramDefaultsBuckets(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := New("foodtruck", reg).Histogram("usecase_duration_seconds", "Use case latency.", nil, "use_case")
	h.Observe(0.2, observability.L("use_case", "combo.submit"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) != 1 || families[0].GetName() != "foodtruck_usecase_duration_seconds" {
		t.Fatalf("unexpected families: %v", families)
	}
	buckets := families[0].GetMetric()[0].GetHistogram().GetBucket()
	if len(buckets) != len(prometheus.DefBuckets) {
		t.Fatalf("expected default buckets, got %d", len(buckets))
	}
}
