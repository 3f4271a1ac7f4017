// Package metrics collects per-run counters and gauges and writes them in
// the Prometheus text format for a node exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels of QueriesChecked.
const (
	ResultPass  = "pass"
	ResultFail  = "fail"
	ResultError = "error"
)

// Recorder holds the metrics of one run on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	QueriesChecked   *prometheus.CounterVec
	IssueCount       *prometheus.GaugeVec
	RemindersPosted  *prometheus.CounterVec
	PriorityDrops    *prometheus.CounterVec
	TrackerErrors    *prometheus.CounterVec
	Notifications    *prometheus.CounterVec
	LastRunTimestamp prometheus.Gauge
}

// New creates a Recorder with all metrics registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		QueriesChecked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backlogger_queries_checked_total",
			Help: "Total number of queries evaluated, by result",
		}, []string{"result"}),
		IssueCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "backlogger_query_issue_count",
			Help: "Issue count reported by the tracker for a query",
		}, []string{"title"}),
		RemindersPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backlogger_reminders_posted_total",
			Help: "Total number of first reminders posted, by priority",
		}, []string{"priority"}),
		PriorityDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backlogger_priority_drops_total",
			Help: "Total number of tickets lowered to the next priority, by original priority",
		}, []string{"priority"}),
		TrackerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backlogger_tracker_errors_total",
			Help: "Total number of failed tracker operations, by operation",
		}, []string{"operation"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backlogger_notifications_total",
			Help: "Total number of team notifications sent, by kind and channel",
		}, []string{"kind", "channel", "success"}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backlogger_last_run_timestamp_seconds",
			Help: "Unix time of the last completed run",
		}),
	}
	r.registry.MustRegister(
		r.QueriesChecked,
		r.IssueCount,
		r.RemindersPosted,
		r.PriorityDrops,
		r.TrackerErrors,
		r.Notifications,
		r.LastRunTimestamp,
	)
	return r
}

// Gatherer exposes the registry for tests and custom exporters.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the current values to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
