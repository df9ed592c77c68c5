package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestCountersConcurrent(t *testing.T) {
	m := New(Config{Enabled: true})

	const workers, perWorker = 8, 1000
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricLoginSuccess)
			}
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	if got := snap.Counters[MetricLoginSuccess]; got != workers*perWorker {
		t.Fatalf("login_success = %d, want %d", got, workers*perWorker)
	}
}

func TestDisabledIsNoOp(t *testing.T) {
	m := New(Config{})
	m.Inc(MetricLoginSuccess)
	m.Observe(MetricValidateLatency, time.Millisecond)

	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("disabled metrics recorded values: %+v", snap)
	}

	var nilM *Metrics
	nilM.Inc(MetricLoginSuccess)
	nilM.Observe(MetricValidateLatency, time.Millisecond)
}

func TestLatencyHistogram(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatency: true})

	m.Observe(MetricValidateLatency, 10*time.Microsecond) // first bucket
	m.Observe(MetricValidateLatency, 10*time.Millisecond) // overflow

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricValidateLatency]
	if len(buckets) != len(LatencyBuckets)+1 {
		t.Fatalf("bucket count %d, want %d", len(buckets), len(LatencyBuckets)+1)
	}
	if buckets[0] != 1 {
		t.Fatalf("first bucket = %d, want 1", buckets[0])
	}
	if buckets[len(buckets)-1] != 1 {
		t.Fatalf("overflow bucket = %d, want 1", buckets[len(buckets)-1])
	}
	wantSum := int64(10*time.Microsecond + 10*time.Millisecond)
	if snap.HistogramSums[MetricValidateLatency] != wantSum {
		t.Fatalf("sum = %d, want %d", snap.HistogramSums[MetricValidateLatency], wantSum)
	}
}

func TestMetricNamesAreStable(t *testing.T) {
	seen := make(map[string]bool)
	for id := MetricID(0); id < MetricIDCount; id++ {
		name := id.Name()
		if name == "" || name == "unknown" {
			t.Fatalf("metric %d has no name", id)
		}
		if seen[name] {
			t.Fatalf("duplicate metric name %q", name)
		}
		seen[name] = true
	}
}
