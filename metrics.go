package aaa

import "github.com/campuscore/aaa/internal/metrics"

// MetricID identifies one internal counter or histogram.
type MetricID = metrics.MetricID

// Counter and histogram ids, re-exported for snapshot consumers.
const (
	MetricRegisterSuccess      = metrics.MetricRegisterSuccess
	MetricRegisterDuplicate    = metrics.MetricRegisterDuplicate
	MetricLoginSuccess         = metrics.MetricLoginSuccess
	MetricLoginFailure         = metrics.MetricLoginFailure
	MetricRefreshSuccess       = metrics.MetricRefreshSuccess
	MetricRefreshFailure       = metrics.MetricRefreshFailure
	MetricRefreshReuseDetected = metrics.MetricRefreshReuseDetected
	MetricValidateSuccess      = metrics.MetricValidateSuccess
	MetricValidateFailure      = metrics.MetricValidateFailure
	MetricTokenRevoked         = metrics.MetricTokenRevoked
	MetricAuthorizeDenied      = metrics.MetricAuthorizeDenied
	MetricRoleChange           = metrics.MetricRoleChange
	MetricUserDisabled         = metrics.MetricUserDisabled
	MetricValidateLatency      = metrics.MetricValidateLatency
)

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
type MetricsSnapshot = metrics.Snapshot

// LatencyBuckets returns the histogram bucket upper bounds.
func LatencyBuckets() []float64 {
	bounds := make([]float64, len(metrics.LatencyBuckets))
	for i, b := range metrics.LatencyBuckets {
		bounds[i] = b.Seconds()
	}
	return bounds
}

// MetricsSnapshot returns a copy of the current metric values. With metrics
// disabled the snapshot is empty.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}
