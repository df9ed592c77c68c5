// Package prometheus exposes engine metrics as a prometheus.Collector, so
// they register on the same registry as the host service's own metrics and
// ride its existing /metrics endpoint.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	aaa "github.com/campuscore/aaa"
)

// Source is anything that can produce a metrics snapshot. *aaa.Engine
// satisfies it.
type Source interface {
	MetricsSnapshot() aaa.MetricsSnapshot
	AuditDropped() uint64
}

var counterHelp = map[aaa.MetricID]string{
	aaa.MetricRegisterSuccess:      "Accounts created.",
	aaa.MetricRegisterDuplicate:    "Registrations refused for a taken email.",
	aaa.MetricLoginSuccess:         "Successful logins.",
	aaa.MetricLoginFailure:         "Refused logins, any reason.",
	aaa.MetricRefreshSuccess:       "Successful refresh rotations.",
	aaa.MetricRefreshFailure:       "Failed refresh attempts, reuse excluded.",
	aaa.MetricRefreshReuseDetected: "Refresh reuse detections. Each one revoked a token family.",
	aaa.MetricValidateSuccess:      "Tokens that validated.",
	aaa.MetricValidateFailure:      "Tokens refused by validation.",
	aaa.MetricTokenRevoked:         "Tokens revoked before natural expiry.",
	aaa.MetricAuthorizeDenied:      "Permission checks denied.",
	aaa.MetricRoleChange:           "Role assignments.",
	aaa.MetricUserDisabled:         "Accounts disabled.",
}

// Collector adapts an engine snapshot to the Prometheus scrape model.
// Collect reads atomically published counters, so a Collector adds no
// locking to the engine's hot paths.
type Collector struct {
	source       Source
	counterDescs map[aaa.MetricID]*prometheus.Desc
	latencyDesc  *prometheus.Desc
	droppedDesc  *prometheus.Desc
}

// NewCollector builds a Collector over the engine's metrics. Metric names
// carry the given namespace, typically the service name; empty means "aaa".
func NewCollector(source Source, namespace string) *Collector {
	if namespace == "" {
		namespace = "aaa"
	}
	descs := make(map[aaa.MetricID]*prometheus.Desc, len(counterHelp))
	for id, help := range counterHelp {
		descs[id] = prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", id.Name()),
			help, nil, nil,
		)
	}
	return &Collector{
		source:       source,
		counterDescs: descs,
		latencyDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", aaa.MetricValidateLatency.Name()),
			"Validation latency.", nil, nil,
		),
		droppedDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "audit_mirror_dropped_total"),
			"Audit records dropped by the mirror under backpressure.", nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range c.counterDescs {
		ch <- desc
	}
	ch <- c.latencyDesc
	ch <- c.droppedDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.source.MetricsSnapshot()

	for id, desc := range c.counterDescs {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(snap.Counters[id]))
	}

	if raw, ok := snap.Histograms[aaa.MetricValidateLatency]; ok {
		bounds := aaa.LatencyBuckets()
		buckets := make(map[float64]uint64, len(bounds))
		var count uint64
		for i, bound := range bounds {
			count += raw[i]
			buckets[bound] = count
		}
		count += raw[len(raw)-1]
		sum := time.Duration(snap.HistogramSums[aaa.MetricValidateLatency]).Seconds()
		ch <- prometheus.MustNewConstHistogram(c.latencyDesc, count, sum, buckets)
	}

	ch <- prometheus.MustNewConstMetric(c.droppedDesc, prometheus.CounterValue, float64(c.source.AuditDropped()))
}
