package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestIncAndValue(t *testing.T) {
	m := New(Config{Enabled: true})

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLogout)

	if got := m.Value(MetricLoginSuccess); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := m.Value(MetricLogout); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := m.Value(MetricLoginFailure); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestDisabledMetricsAreNoOps(t *testing.T) {
	m := New(Config{})
	m.Inc(MetricLoginSuccess)
	m.Observe(MetricSignInLatency, time.Millisecond)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected disabled counter to stay 0, got %d", got)
	}

	snapshot := m.SnapshotAll()
	if len(snapshot.Counters) != 0 || len(snapshot.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snapshot)
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(MetricLoginSuccess)
	if got := nilMetrics.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected nil metrics to read 0, got %d", got)
	}
}

func TestObserveBucketsLatency(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatency: true})

	m.Observe(MetricSignInLatency, 3*time.Millisecond)
	m.Observe(MetricSignInLatency, 20*time.Millisecond)
	m.Observe(MetricSignInLatency, 20*time.Millisecond)
	m.Observe(MetricSignInLatency, time.Second)

	buckets := m.SnapshotAll().Histograms[MetricSignInLatency]
	if len(buckets) != HistBucketCount {
		t.Fatalf("expected %d buckets, got %d", HistBucketCount, len(buckets))
	}
	if buckets[0] != 1 {
		t.Fatalf("expected 1 sample in <=5ms bucket, got %d", buckets[0])
	}
	if buckets[2] != 2 {
		t.Fatalf("expected 2 samples in <=25ms bucket, got %d", buckets[2])
	}
	if buckets[7] != 1 {
		t.Fatalf("expected 1 sample in overflow bucket, got %d", buckets[7])
	}
}

func TestObserveIgnoresOtherIDs(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatency: true})
	m.Observe(MetricLoginSuccess, time.Millisecond)

	if buckets, ok := m.SnapshotAll().Histograms[MetricLoginSuccess]; ok {
		t.Fatalf("expected no histogram for counter id, got %v", buckets)
	}
}

func TestConcurrentInc(t *testing.T) {
	m := New(Config{Enabled: true})

	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricSessionNotification)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricSessionNotification); got != workers*perWorker {
		t.Fatalf("expected %d, got %d", workers*perWorker, got)
	}
}
