// Package metrics provides Prometheus instrumentation and a JSON stats
// endpoint for the exportd delivery pipeline.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus counters and gauges for intake and
// delivery. All methods are safe to call on a nil receiver, so callers
// can pass nil when metrics are disabled.
type Metrics struct {
	registry *prometheus.Registry

	recordsWritten *prometheus.CounterVec
	recordsDropped *prometheus.CounterVec
	targetErrors   *prometheus.CounterVec
	suppressed     *prometheus.CounterVec
	openTargets    *prometheus.GaugeVec
	reopenSweeps   prometheus.Counter
	intakeRecords  *prometheus.CounterVec

	mu           sync.Mutex
	startTime    time.Time
	writtenCount int64
	droppedCount int64
}

// New creates a Metrics instance with its own Prometheus registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	recordsWritten := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exportd",
		Name:      "records_written_total",
		Help:      "Records delivered to a destination, by transport.",
	}, []string{"transport"})

	recordsDropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exportd",
		Name:      "records_dropped_total",
		Help:      "Records dropped because a destination was unavailable.",
	}, []string{"transport"})

	targetErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exportd",
		Name:      "target_errors_total",
		Help:      "Destination failures by transport and operation.",
	}, []string{"transport", "op"})

	suppressed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exportd",
		Name:      "diagnostics_suppressed_total",
		Help:      "Error diagnostics withheld by the per-target rate limit.",
	}, []string{"transport"})

	openTargets := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "exportd",
		Name:      "open_targets",
		Help:      "Destinations currently holding an open handle.",
	}, []string{"transport"})

	reopenSweeps := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exportd",
		Name:      "reopen_sweeps_total",
		Help:      "Rotation reopen sweeps across all file targets.",
	})

	intakeRecords := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exportd",
		Name:      "intake_records_total",
		Help:      "Intake records by result (accepted, invalid, oversize, throttled).",
	}, []string{"result"})

	reg.MustRegister(recordsWritten, recordsDropped, targetErrors,
		suppressed, openTargets, reopenSweeps, intakeRecords)

	return &Metrics{
		registry:       reg,
		recordsWritten: recordsWritten,
		recordsDropped: recordsDropped,
		targetErrors:   targetErrors,
		suppressed:     suppressed,
		openTargets:    openTargets,
		reopenSweeps:   reopenSweeps,
		intakeRecords:  intakeRecords,
		startTime:      time.Now(),
	}
}

// RecordWritten counts one record delivered to a destination.
func (m *Metrics) RecordWritten(transport string) {
	if m == nil {
		return
	}
	m.recordsWritten.WithLabelValues(transport).Inc()

	m.mu.Lock()
	m.writtenCount++
	m.mu.Unlock()
}

// RecordDropped counts one record dropped on an unavailable destination.
func (m *Metrics) RecordDropped(transport string) {
	if m == nil {
		return
	}
	m.recordsDropped.WithLabelValues(transport).Inc()

	m.mu.Lock()
	m.droppedCount++
	m.mu.Unlock()
}

// TargetError counts a destination failure for the given operation
// (open, write, close).
func (m *Metrics) TargetError(transport, op string) {
	if m == nil {
		return
	}
	m.targetErrors.WithLabelValues(transport, op).Inc()
}

// DiagnosticSuppressed counts a withheld error diagnostic.
func (m *Metrics) DiagnosticSuppressed(transport string) {
	if m == nil {
		return
	}
	m.suppressed.WithLabelValues(transport).Inc()
}

// TargetOpened tracks a destination handle being established.
func (m *Metrics) TargetOpened(transport string) {
	if m == nil {
		return
	}
	m.openTargets.WithLabelValues(transport).Inc()
}

// TargetClosed tracks a destination handle being released.
func (m *Metrics) TargetClosed(transport string) {
	if m == nil {
		return
	}
	m.openTargets.WithLabelValues(transport).Dec()
}

// ReopenSweep counts one rotation sweep.
func (m *Metrics) ReopenSweep() {
	if m == nil {
		return
	}
	m.reopenSweeps.Inc()
}

// IntakeRecord counts one intake record by result.
func (m *Metrics) IntakeRecord(result string) {
	if m == nil {
		return
	}
	m.intakeRecords.WithLabelValues(result).Inc()
}

// PrometheusHandler returns an HTTP handler that serves /metrics in
// Prometheus text format.
func (m *Metrics) PrometheusHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StatsHandler returns an HTTP handler that serves a JSON stats summary.
func (m *Metrics) StatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		m.mu.Lock()
		stats := statsResponse{
			UptimeSeconds: time.Since(m.startTime).Seconds(),
			Records: recordStats{
				Written: m.writtenCount,
				Dropped: m.droppedCount,
			},
		}
		m.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats)
	}
}

type statsResponse struct {
	UptimeSeconds float64     `json:"uptime_seconds"`
	Records       recordStats `json:"records"`
}

type recordStats struct {
	Written int64 `json:"written"`
	Dropped int64 `json:"dropped"`
}
