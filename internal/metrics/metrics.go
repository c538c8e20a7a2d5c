// Package metrics provides Prometheus metrics for lead intake, polling and
// notification delivery.
//
// All Record* methods are safe to call on a nil *Metrics, so components can
// run without a registry in tests.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains every collector exported by the service.
type Metrics struct {
	PollCyclesTotal     *prometheus.CounterVec // Cycles by result: success, store_error, panic
	PollDuration        prometheus.Histogram   // Wall time of one cycle
	SnapshotRecords     prometheus.Gauge       // Records in the latest snapshot
	TransitionsTotal    prometheus.Counter     // Status transitions detected
	NotificationsTotal  *prometheus.CounterVec // Deliveries by kind and outcome
	AppendsTotal        *prometheus.CounterVec // Stored submissions by kind and result
	LastCycleSuccessful prometheus.Gauge       // Unix time of the last successful cycle
}

// New creates the collectors and registers them with registry.
func New(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.PollCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_poll_cycles_total",
			Help: "Total number of poll cycles by result",
		},
		[]string{"result"},
	)

	m.PollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leadflow_poll_duration_seconds",
			Help:    "Time taken by one poll cycle including notification delivery",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	m.SnapshotRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "leadflow_snapshot_records",
			Help: "Number of records in the most recent snapshot",
		},
	)

	m.TransitionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "leadflow_status_transitions_total",
			Help: "Total number of status transitions detected",
		},
	)

	m.NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_notifications_total",
			Help: "Total number of notifications by kind and outcome",
		},
		[]string{"kind", "outcome"}, // kind: status, announcement; outcome: delivered, skipped, failed
	)

	m.AppendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_appends_total",
			Help: "Total number of submissions written to the store by kind and result",
		},
		[]string{"kind", "result"},
	)

	m.LastCycleSuccessful = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "leadflow_last_successful_cycle_timestamp_seconds",
			Help: "Unix time of the last poll cycle that read the store successfully",
		},
	)
}

// RecordCycle records the outcome of one poll cycle.
func (m *Metrics) RecordCycle(result string, duration time.Duration, records, transitions int) {
	if m == nil {
		return
	}
	m.PollCyclesTotal.WithLabelValues(result).Inc()
	m.PollDuration.Observe(duration.Seconds())
	if result == "success" {
		m.SnapshotRecords.Set(float64(records))
		m.LastCycleSuccessful.SetToCurrentTime()
	}
	m.TransitionsTotal.Add(float64(transitions))
}

// RecordNotification counts one delivery attempt.
func (m *Metrics) RecordNotification(kind, outcome string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordAppend counts one store write.
func (m *Metrics) RecordAppend(kind string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.AppendsTotal.WithLabelValues(kind, result).Inc()
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.PollCyclesTotal.Collect(ch)
	m.PollDuration.Collect(ch)
	m.SnapshotRecords.Collect(ch)
	m.TransitionsTotal.Collect(ch)
	m.NotificationsTotal.Collect(ch)
	m.AppendsTotal.Collect(ch)
	m.LastCycleSuccessful.Collect(ch)
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.PollCyclesTotal.Describe(ch)
	m.PollDuration.Describe(ch)
	m.SnapshotRecords.Describe(ch)
	m.TransitionsTotal.Describe(ch)
	m.NotificationsTotal.Describe(ch)
	m.AppendsTotal.Describe(ch)
	m.LastCycleSuccessful.Describe(ch)
}
