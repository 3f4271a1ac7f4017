package backlog

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/steveyegge/backlogger/internal/redmine"
	"github.com/steveyegge/backlogger/internal/report"
	"github.com/steveyegge/backlogger/internal/slo"
	"github.com/steveyegge/backlogger/internal/telemetry"
)

// influxPageSize is appended to every query in InfluxDB mode.
const influxPageSize = 100

// StatusTracker is a Tracker that can also list statuses and read issues
// outside of the configured project, as the InfluxDB report needs.
type StatusTracker interface {
	Tracker
	IssueStatuses(ctx context.Context) ([]redmine.Status, error)
	JournalsAcrossProjects(ctx context.Context, id int) ([]redmine.Journal, error)
}

// Influx runs every query and returns the InfluxDB line protocol of the
// run. The escalation loop runs for each query like in a markdown run.
// Queries that cannot be fetched produce no lines and are reported in
// failed.
func (r *Runner) Influx(ctx context.Context, tracker StatusTracker) (lines []string, failed []string, err error) {
	ctx, span := telemetry.Start(ctx, "backlogger.influx")
	defer func() { telemetry.End(span, err) }()

	statuses, err := tracker.IssueStatuses(ctx)
	if err != nil {
		r.Metrics.TrackerErrors.WithLabelValues("statuses").Inc()
		return nil, nil, err
	}
	inCycle := r.inCycleIDs(statuses)

	now := r.now()
	ladder := slo.NewLadder(now)
	ts := report.MidnightNanos(now)

	for _, q := range r.Config.Queries {
		found, err := tracker.SearchIssues(ctx, fmt.Sprintf("%s&limit=%d", q.Query, influxPageSize))
		if err != nil {
			r.Log.Warnw("there was an error retrieving the issues", "query", q.Title, "error", err)
			r.Metrics.TrackerErrors.WithLabelValues("search").Inc()
			failed = append(failed, q.Title)
			continue
		}
		r.Escalate(ctx, q, found.Issues, ladder)

		stats := r.statusStats(ctx, tracker, found.Issues, inCycle)
		lines = append(lines, report.InfluxLines(r.Config.Team, q.Title, stats, ts)...)
	}

	span.SetAttributes(attribute.Int("lines", len(lines)))
	return lines, failed, nil
}

func (r *Runner) inCycleIDs(statuses []redmine.Status) map[string]bool {
	byName := make(map[string]int, len(statuses))
	for _, s := range statuses {
		byName[s.Name] = s.ID
	}
	ids := make(map[string]bool, len(report.InCycleStatuses))
	for _, name := range report.InCycleStatuses {
		id, ok := byName[name]
		if !ok {
			r.Log.Warnw("status missing on tracker, cycle time ignores it", "status", name)
			continue
		}
		ids[strconv.Itoa(id)] = true
	}
	return ids
}

// statusStats groups issues by status in order of first appearance. Every
// issue is counted; issues with unreadable timestamps or history are left
// out of the time aggregates only.
func (r *Runner) statusStats(ctx context.Context, tracker StatusTracker, issues []redmine.Issue, inCycle map[string]bool) []report.StatusStats {
	var stats []report.StatusStats
	index := make(map[string]int)

	for _, issue := range issues {
		i, ok := index[issue.Status.Name]
		if !ok {
			i = len(stats)
			index[issue.Status.Name] = i
			stats = append(stats, report.StatusStats{Status: issue.Status.Name})
		}
		stats[i].Tickets++

		lead, err := report.LeadTime(issue)
		if err != nil {
			r.Log.Warnw("skipping ticket in lead time", "id", issue.ID, "error", err)
			continue
		}

		var cycle time.Duration
		if issue.Status.Name == report.ResolvedStatus {
			journals, err := tracker.JournalsAcrossProjects(ctx, issue.ID)
			if err == nil {
				cycle, err = report.CycleTime(issue.CreatedOn, journals, inCycle)
			}
			if err != nil {
				r.Metrics.TrackerErrors.WithLabelValues("journals").Inc()
				r.Log.Warnw("skipping ticket in cycle time", "id", issue.ID, "error", err)
				continue
			}
		}

		stats[i].LeadTimes = append(stats[i].LeadTimes, lead)
		if issue.Status.Name == report.ResolvedStatus {
			stats[i].CycleTimes = append(stats[i].CycleTimes, cycle)
		}
	}
	return stats
}
