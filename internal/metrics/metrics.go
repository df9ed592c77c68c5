// Package metrics is the engine's in-process metrics store: fixed-slot
// atomic counters plus an optional latency histogram for the validation hot
// path. It holds no locks, so counting never contends with request
// handling; exporters read point-in-time snapshots.
package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter or histogram slot.
type MetricID uint16

const (
	// MetricRegisterSuccess counts created accounts.
	MetricRegisterSuccess MetricID = iota
	// MetricRegisterDuplicate counts registrations refused for a taken email.
	MetricRegisterDuplicate
	// MetricLoginSuccess counts successful logins.
	MetricLoginSuccess
	// MetricLoginFailure counts refused logins, disabled accounts included.
	MetricLoginFailure
	// MetricRefreshSuccess counts successful rotations.
	MetricRefreshSuccess
	// MetricRefreshFailure counts refused rotations other than reuse.
	MetricRefreshFailure
	// MetricRefreshReuseDetected counts reuse detections.
	MetricRefreshReuseDetected
	// MetricValidateSuccess counts tokens that validated.
	MetricValidateSuccess
	// MetricValidateFailure counts tokens that failed validation.
	MetricValidateFailure
	// MetricTokenRevoked counts explicit revocations, family members included.
	MetricTokenRevoked
	// MetricAuthorizeDenied counts permission checks that answered no.
	MetricAuthorizeDenied
	// MetricRoleChange counts role reassignments.
	MetricRoleChange
	// MetricUserDisabled counts account deactivations.
	MetricUserDisabled
	// MetricValidateLatency is a histogram of Validate wall time.
	MetricValidateLatency

	// MetricIDCount is the number of metric slots.
	MetricIDCount
)

// LatencyBuckets are the histogram upper bounds. The last implicit bucket
// is unbounded.
var LatencyBuckets = []time.Duration{
	50 * time.Microsecond,
	100 * time.Microsecond,
	250 * time.Microsecond,
	500 * time.Microsecond,
	time.Millisecond,
	5 * time.Millisecond,
}

// Config enables the store and its histograms.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

// Metrics holds the counters. A disabled Metrics is a no-op and a nil
// *Metrics is safe to call.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [MetricIDCount]atomic.Uint64
	latency       [MetricIDCount][]atomic.Uint64
	latencySum    [MetricIDCount]atomic.Int64
}

// New creates a Metrics store.
func New(cfg Config) *Metrics {
	m := &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatency,
	}
	if m.enableLatency {
		m.latency[MetricValidateLatency] = make([]atomic.Uint64, len(LatencyBuckets)+1)
	}
	return m
}

// Inc adds one to a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Observe records one latency sample into the histogram for id.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id >= MetricIDCount || m.latency[id] == nil {
		return
	}
	m.latencySum[id].Add(int64(d))
	for i, bound := range LatencyBuckets {
		if d <= bound {
			m.latency[id][i].Add(1)
			return
		}
	}
	m.latency[id][len(LatencyBuckets)].Add(1)
}

// Snapshot is a point-in-time deep copy of all counters and histograms.
type Snapshot struct {
	Counters map[MetricID]uint64
	// Histograms holds per-bucket counts, one extra slot for overflow.
	Histograms map[MetricID][]uint64
	// HistogramSums holds the summed observations in nanoseconds.
	HistogramSums map[MetricID]int64
}

// Snapshot copies the current values. Safe to call concurrently with
// counting.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Counters:      make(map[MetricID]uint64),
		Histograms:    make(map[MetricID][]uint64),
		HistogramSums: make(map[MetricID]int64),
	}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		if v := m.counters[id].Load(); v > 0 {
			snap.Counters[id] = v
		}
		if buckets := m.latency[id]; buckets != nil {
			copied := make([]uint64, len(buckets))
			for i := range buckets {
				copied[i] = buckets[i].Load()
			}
			snap.Histograms[id] = copied
			snap.HistogramSums[id] = m.latencySum[id].Load()
		}
	}
	return snap
}

// Name returns the stable exposition name for a metric.
func (id MetricID) Name() string {
	switch id {
	case MetricRegisterSuccess:
		return "register_success_total"
	case MetricRegisterDuplicate:
		return "register_duplicate_total"
	case MetricLoginSuccess:
		return "login_success_total"
	case MetricLoginFailure:
		return "login_failure_total"
	case MetricRefreshSuccess:
		return "refresh_success_total"
	case MetricRefreshFailure:
		return "refresh_failure_total"
	case MetricRefreshReuseDetected:
		return "refresh_reuse_detected_total"
	case MetricValidateSuccess:
		return "validate_success_total"
	case MetricValidateFailure:
		return "validate_failure_total"
	case MetricTokenRevoked:
		return "token_revoked_total"
	case MetricAuthorizeDenied:
		return "authorize_denied_total"
	case MetricRoleChange:
		return "role_change_total"
	case MetricUserDisabled:
		return "user_disabled_total"
	case MetricValidateLatency:
		return "validate_latency_seconds"
	default:
		return "unknown"
	}
}
