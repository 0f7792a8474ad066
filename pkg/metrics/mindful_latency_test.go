package metrics

import (
	"testing"
	"time"
)

func TestLatencyTracker_Percentiles(t *testing.T) {
	tr := NewLatencyTracker(100)
	for i := 1; i <= 100; i++ {
		tr.Record(time.Duration(i)*time.Millisecond, false)
	}
	tr.Record(time.Second, true)

	s := tr.Stats()
	if s.Count != 101 || s.Errors != 1 || s.Samples != 100 {
		t.Fatalf("unexpected counters: %+v", s)
	}
	if s.Min != time.Millisecond || s.Max != 100*time.Millisecond {
		t.Errorf("min/max = %v/%v", s.Min, s.Max)
	}
	if s.P50 != 50*time.Millisecond {
		t.Errorf("p50 = %v, want 50ms", s.P50)
	}
	if s.P99 != 99*time.Millisecond {
		t.Errorf("p99 = %v, want 99ms", s.P99)
	}
}

func TestLatencyTracker_WindowWraps(t *testing.T) {
	tr := NewLatencyTracker(3)
	for _, ms := range []int{100, 1, 2, 3} {
		tr.Record(time.Duration(ms)*time.Millisecond, false)
	}
	s := tr.Stats()
	if s.Samples != 3 {
		t.Fatalf("samples = %d, want 3", s.Samples)
	}
	if s.Max != 3*time.Millisecond {
		t.Errorf("oldest sample should be evicted, max = %v", s.Max)
	}
}

func TestLatencyRegistry_Snapshot(t *testing.T) {
	r := NewLatencyRegistry(10)
	r.Record("classifier", 5*time.Millisecond, false)
	r.Record("classifier", 0, true)

	snap := r.Snapshot()
	c, ok := snap["classifier"]
	if !ok {
		t.Fatal("missing classifier entry")
	}
	if c["count"] != int64(2) || c["errors"] != int64(1) {
		t.Errorf("unexpected snapshot: %v", c)
	}
	if len(NewLatencyRegistry(10).Snapshot()) != 0 {
		t.Error("empty registry should have empty snapshot")
	}
}
