// Package prometheus exports ledger metrics to a Prometheus registry.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements metrics.Collector for Prometheus.
// It also implements prometheus.Collector so it can be registered directly
// with a registry.
type PrometheusCollector struct {
	namespace string

	operations       *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec
	transferVolume   *prometheus.CounterVec
	accountCount     prometheus.Gauge
	filterLookups    *prometheus.CounterVec
}

// NewPrometheusCollector creates a new Prometheus metrics collector.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		namespace: namespace,
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of ledger operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		operationLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Latency of ledger operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		transferVolume: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfer_volume_total",
				Help:      "Total amount moved or requested, by transfer kind",
			},
			[]string{"kind"},
		),
		accountCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "accounts",
				Help:      "Current number of accounts in the ledger",
			},
		),
		filterLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "username_filter_lookups_total",
				Help:      "Username filter probes, by result",
			},
			[]string{"result"},
		),
	}
}

// RecordOperation records one ledger operation outcome and its latency.
func (pc *PrometheusCollector) RecordOperation(op string, outcome string, duration time.Duration) {
	pc.operations.WithLabelValues(op, outcome).Inc()
	pc.operationLatency.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordTransferVolume records the amount moved or requested, by kind.
func (pc *PrometheusCollector) RecordTransferVolume(kind string, amount int64) {
	pc.transferVolume.WithLabelValues(kind).Add(float64(amount))
}

// SetAccountCount records the current number of accounts.
func (pc *PrometheusCollector) SetAccountCount(n int) {
	pc.accountCount.Set(float64(n))
}

// RecordFilterLookup records a username-filter probe.
func (pc *PrometheusCollector) RecordFilterLookup(screened bool) {
	result := "passed"
	if screened {
		result = "screened"
	}
	pc.filterLookups.WithLabelValues(result).Inc()
}

// Describe implements prometheus.Collector.
func (pc *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	pc.operations.Describe(ch)
	pc.operationLatency.Describe(ch)
	pc.transferVolume.Describe(ch)
	pc.accountCount.Describe(ch)
	pc.filterLookups.Describe(ch)
}

// Collect implements prometheus.Collector.
func (pc *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	pc.operations.Collect(ch)
	pc.operationLatency.Collect(ch)
	pc.transferVolume.Collect(ch)
	pc.accountCount.Collect(ch)
	pc.filterLookups.Collect(ch)
}
