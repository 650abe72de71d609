package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHelpers(t *testing.T) {
	before := testutil.ToFloat64(TradesRecorded.WithLabelValues("BUY", "recorded"))
	RecordTrade("BUY", "recorded")
	if got := testutil.ToFloat64(TradesRecorded.WithLabelValues("BUY", "recorded")); got != before+1 {
		t.Fatalf("trades recorded = %v, want %v", got, before+1)
	}

	before = testutil.ToFloat64(FilesIngested.WithLabelValues("error"))
	RecordFileIngested(false)
	if got := testutil.ToFloat64(FilesIngested.WithLabelValues("error")); got != before+1 {
		t.Fatalf("files ingested = %v, want %v", got, before+1)
	}

	before = testutil.ToFloat64(CalculationErrors.WithLabelValues("pe_ratio", "undefined_ratio"))
	RecordCalculationError("pe_ratio", "undefined_ratio")
	if got := testutil.ToFloat64(CalculationErrors.WithLabelValues("pe_ratio", "undefined_ratio")); got != before+1 {
		t.Fatalf("calculation errors = %v, want %v", got, before+1)
	}
}

func TestTimer(t *testing.T) {
	timer := NewTimer()
	time.Sleep(time.Millisecond)
	if timer.Elapsed() < time.Millisecond {
		t.Fatalf("elapsed = %v", timer.Elapsed())
	}

	h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "test_duration_seconds"})
	timer.ObserveDuration(h)
	if n := testutil.CollectAndCount(h); n != 1 {
		t.Fatalf("collected %d metrics", n)
	}
}
