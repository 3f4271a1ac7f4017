// Package backlog runs the configured queries against the tracker, drives
// the per-ticket escalation protocol and notifies the team when the set of
// failing queries changes.
package backlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/steveyegge/backlogger/internal/config"
	"github.com/steveyegge/backlogger/internal/metrics"
	"github.com/steveyegge/backlogger/internal/notification"
	"github.com/steveyegge/backlogger/internal/redmine"
	"github.com/steveyegge/backlogger/internal/report"
	"github.com/steveyegge/backlogger/internal/runstate"
	"github.com/steveyegge/backlogger/internal/slo"
	"github.com/steveyegge/backlogger/internal/telemetry"
	"github.com/steveyegge/backlogger/internal/threshold"
)

// Tracker is the part of the tracker API a run needs.
type Tracker interface {
	QueryURL(query string) string
	SearchIssues(ctx context.Context, query string) (*redmine.SearchResult, error)
	Journals(ctx context.Context, id int) ([]redmine.Journal, error)
	AddNote(ctx context.Context, id int, notes string) error
	SetPriority(ctx context.Context, id, priorityID int, notes string) error
}

// QueryResult is the evaluation of one configured query.
type QueryResult struct {
	Title      string
	URL        string
	IssueCount int
	Limits     string
	Pass       bool
	// Err is set when the query could not be evaluated. Such a query
	// counts as failing.
	Err error
}

// Row converts r for the markdown dashboard.
func (r QueryResult) Row() report.Row {
	row := report.Row{
		Title:      r.Title,
		URL:        r.URL,
		IssueCount: r.IssueCount,
		Limits:     r.Limits,
		Pass:       r.Pass,
	}
	if r.Err != nil {
		row.Error = r.Err.Error()
	}
	return row
}

// Detail converts r for the persisted run state.
func (r QueryResult) Detail() runstate.QueryDetail {
	d := runstate.QueryDetail{URL: r.URL, IssueCount: r.IssueCount, Limits: r.Limits}
	if r.Err != nil {
		d.Error = r.Err.Error()
	}
	return d
}

// EscalationStats counts what the escalation loop did.
type EscalationStats struct {
	Reminders     int
	Drops         int
	SkippedLowest int
	Unchanged     int
	Errors        int
}

func (s *EscalationStats) add(o EscalationStats) {
	s.Reminders += o.Reminders
	s.Drops += o.Drops
	s.SkippedLowest += o.SkippedLowest
	s.Unchanged += o.Unchanged
	s.Errors += o.Errors
}

// CheckResult is the outcome of Check.
type CheckResult struct {
	Results []QueryResult
	AllGood bool
	// Failing maps the title of every failing query to its details.
	Failing    map[string]runstate.QueryDetail
	Escalation EscalationStats
}

// Rows converts all results for the markdown dashboard.
func (c *CheckResult) Rows() []report.Row {
	rows := make([]report.Row, 0, len(c.Results))
	for _, r := range c.Results {
		rows = append(rows, r.Row())
	}
	return rows
}

// Runner executes one backlogger run.
type Runner struct {
	Config     *config.Config
	Tracker    Tracker
	Dispatcher *notification.Dispatcher
	Log        *zap.SugaredLogger
	Metrics    *metrics.Recorder
	// Now returns the reference time of the run. Defaults to time.Now.
	Now func() time.Time
	// Clock returns the wall time recorded in the run state. Defaults to
	// time.Now and is not affected by a back-dated Now.
	Clock func() time.Time
	// Reminders enables posting notes and changing priorities on tickets.
	Reminders bool
}

// NewRunner creates a Runner with defaults for the optional collaborators.
func NewRunner(cfg *config.Config, tracker Tracker, dispatcher *notification.Dispatcher, log *zap.SugaredLogger) *Runner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runner{
		Config:     cfg,
		Tracker:    tracker,
		Dispatcher: dispatcher,
		Log:        log,
		Metrics:    metrics.New(),
		Now:        time.Now,
		Clock:      time.Now,
	}
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Runner) wallClock() time.Time {
	if r.Clock == nil {
		return time.Now()
	}
	return r.Clock()
}

// Check evaluates every configured query in order. A query that cannot be
// fetched is logged and marked failing; the remaining queries still run.
func (r *Runner) Check(ctx context.Context) *CheckResult {
	ctx, span := telemetry.Start(ctx, "backlogger.check",
		attribute.Int("queries", len(r.Config.Queries)))
	defer span.End()

	ladder := slo.NewLadder(r.now())
	res := &CheckResult{
		AllGood: true,
		Failing: make(map[string]runstate.QueryDetail),
	}

	for _, q := range r.Config.Queries {
		qr, stats := r.checkQuery(ctx, q, ladder)
		res.Results = append(res.Results, qr)
		res.Escalation.add(stats)

		switch {
		case qr.Err != nil:
			r.Metrics.QueriesChecked.WithLabelValues(metrics.ResultError).Inc()
		case qr.Pass:
			r.Metrics.QueriesChecked.WithLabelValues(metrics.ResultPass).Inc()
		default:
			r.Metrics.QueriesChecked.WithLabelValues(metrics.ResultFail).Inc()
		}

		if !qr.Pass {
			res.AllGood = false
			res.Failing[qr.Title] = qr.Detail()
		}
	}

	span.SetAttributes(attribute.Int("failing", len(res.Failing)))
	return res
}

func (r *Runner) checkQuery(ctx context.Context, q config.Query, ladder slo.Ladder) (QueryResult, EscalationStats) {
	ctx, span := telemetry.Start(ctx, "backlogger.query", attribute.String("query.title", q.Title))

	qr := QueryResult{
		Title:  q.Title,
		URL:    r.Tracker.QueryURL(q.Query),
		Limits: threshold.LimitsText(q.Bounds()),
	}

	found, err := r.Tracker.SearchIssues(ctx, q.Query)
	if err != nil {
		r.Log.Warnw("there was an error retrieving the issues", "query", q.Title, "error", err)
		r.Metrics.TrackerErrors.WithLabelValues("search").Inc()
		qr.Err = err
		telemetry.End(span, err)
		return qr, EscalationStats{}
	}

	stats := r.Escalate(ctx, q, found.Issues, ladder)

	verdict, err := threshold.Evaluate(found.TotalCount, q.Bounds())
	if err != nil {
		qr.Err = fmt.Errorf("evaluate %q: %w", q.Title, err)
		telemetry.End(span, qr.Err)
		return qr, stats
	}

	qr.IssueCount = found.TotalCount
	qr.Pass = verdict.Pass
	r.Metrics.IssueCount.WithLabelValues(q.Title).Set(float64(found.TotalCount))
	if !verdict.Pass {
		r.Log.Infow("query outside its limits", "query", q.Title, "issues", found.TotalCount, "limits", qr.Limits)
	}

	span.SetAttributes(
		attribute.Int("query.issue_count", found.TotalCount),
		attribute.Bool("query.pass", verdict.Pass),
	)
	telemetry.End(span, nil)
	return qr, stats
}

// Escalate applies the escalation protocol to the issues of q. It does
// nothing unless reminders are enabled. Issues of a query that is not
// SLO-tracked are left unchanged. An issue whose history cannot be read or
// updated is logged and skipped.
func (r *Runner) Escalate(ctx context.Context, q config.Query, issues []redmine.Issue, ladder slo.Ladder) EscalationStats {
	var stats EscalationStats
	if !r.Reminders {
		return stats
	}

	for _, issue := range issues {
		action, err := r.escalateIssue(ctx, q, issue, ladder)
		if err != nil {
			stats.Errors++
			r.Log.Warnw("skipping ticket", "id", issue.ID, "query", q.Title, "error", err)
			continue
		}
		switch action.Kind {
		case slo.ActionFirstReminder:
			stats.Reminders++
		case slo.ActionRepeatAndDeprioritize:
			stats.Drops++
		case slo.ActionSkipAlreadyLowest:
			stats.SkippedLowest++
		default:
			stats.Unchanged++
		}
	}
	return stats
}

func (r *Runner) escalateIssue(ctx context.Context, q config.Query, issue redmine.Issue, ladder slo.Ladder) (action slo.Action, err error) {
	ctx, span := telemetry.Start(ctx, "backlogger.escalate",
		attribute.Int("issue.id", issue.ID),
		attribute.String("issue.priority", issue.Priority.Name))
	defer func() {
		span.SetAttributes(attribute.String("action", action.Kind.String()))
		telemetry.End(span, err)
	}()

	tracked := q.Tracked()

	// History of an untracked ticket is never consulted.
	var state slo.ReminderState
	if tracked {
		journals, err := r.Tracker.Journals(ctx, issue.ID)
		if err != nil {
			r.Metrics.TrackerErrors.WithLabelValues("journals").Inc()
			return slo.Action{}, err
		}
		history, err := toHistory(journals)
		if err != nil {
			return slo.Action{}, fmt.Errorf("history of #%d: %w", issue.ID, err)
		}
		state = slo.ScanHistory(history)
	}

	priority := slo.Priority(issue.Priority.Name)
	action = slo.Decide(slo.Input{
		Tracked:   tracked,
		Priority:  priority,
		State:     state,
		Now:       r.now(),
		Ladder:    ladder,
		Comment:   q.Comment,
		PolicyURL: r.Config.URL,
	})

	switch action.Kind {
	case slo.ActionFirstReminder:
		r.Log.Infow("writing reminder", "id", issue.ID, "priority", priority)
		if err := r.Tracker.AddNote(ctx, issue.ID, action.Message); err != nil {
			r.Metrics.TrackerErrors.WithLabelValues("add_note").Inc()
			return action, err
		}
		r.Metrics.RemindersPosted.WithLabelValues(string(priority)).Inc()

	case slo.ActionRepeatAndDeprioritize:
		r.Log.Infow("no response to reminder, reducing priority",
			"id", issue.ID, "from", priority, "to", action.NewPriority)
		if err := r.Tracker.SetPriority(ctx, issue.ID, action.NewPriority.ID(), action.Message); err != nil {
			r.Metrics.TrackerErrors.WithLabelValues("set_priority").Inc()
			return action, err
		}
		r.Metrics.PriorityDrops.WithLabelValues(string(priority)).Inc()

	case slo.ActionSkipAlreadyLowest:
		r.Log.Infow("skipping priority update, already at lowest", "id", issue.ID)

	default:
		r.Log.Debugw("no escalation", "id", issue.ID, "reason", action.Reason)
	}
	return action, nil
}

// toHistory converts tracker journals for the history scanner. Only entries
// with notes are kept, as nothing else can hold a reminder.
func toHistory(journals []redmine.Journal) ([]slo.Journal, error) {
	out := make([]slo.Journal, 0, len(journals))
	for _, j := range journals {
		if j.Notes == "" {
			continue
		}
		ts, err := redmine.ParseTimestamp(j.CreatedOn)
		if err != nil {
			return nil, err
		}
		out = append(out, slo.Journal{CreatedOn: ts, Notes: j.Notes})
	}
	return out, nil
}

// Notify compares the failing set with the previous run and, when that
// warrants it, sends the message to every channel. Delivery failures are
// logged and never returned.
func (r *Runner) Notify(ctx context.Context, previous *runstate.State, failing map[string]runstate.QueryDetail) runstate.Decision {
	decision := runstate.Diff(previous, failing)
	if decision.Kind == runstate.NoNotification || r.Dispatcher == nil {
		r.Log.Debugw("no notification", "decision", decision.Kind.String())
		return decision
	}

	for _, res := range r.Dispatcher.Dispatch(ctx, decision.Message()) {
		r.Metrics.Notifications.WithLabelValues(decision.Kind.String(), res.Channel, fmt.Sprint(res.Success)).Inc()
		if !res.Success {
			r.Log.Warnw("notification failed", "channel", res.Channel, "error", res.Error)
			continue
		}
		r.Log.Infow("notification sent", "channel", res.Channel, "kind", decision.Kind.String())
	}
	return decision
}

// Options are the file locations of a markdown run.
type Options struct {
	// ReportPath is where the dashboard is written. Empty skips it.
	ReportPath string
	// StateDir holds the previous run's state. Empty means no previous run.
	StateDir string
	// StateOut is where the new state is written.
	StateOut string
}

// Run performs a complete markdown run: check all queries, write the
// dashboard, notify on changes and persist the failing set. The state is
// saved even when the previous state cannot be read or notification fails.
func (r *Runner) Run(ctx context.Context, opts Options) (*CheckResult, error) {
	res := r.Check(ctx)

	var errs []error
	if opts.ReportPath != "" {
		theme, ok := report.ThemeByName(r.Config.Theme)
		if !ok {
			r.Log.Warnf("theme %q not found, falling back to %q", r.Config.Theme, theme.Name)
		}
		dash := report.Dashboard{Team: r.Config.Team, URL: r.Config.URL, Theme: theme, Now: r.now()}
		if err := dash.WriteFile(opts.ReportPath, res.Rows()); err != nil {
			errs = append(errs, err)
		}
	}

	previous, err := runstate.Load(opts.StateDir)
	if err != nil {
		r.Log.Warnw("ignoring previous state", "error", err)
		previous = nil
	}
	r.Notify(ctx, previous, res.Failing)

	stateOut := opts.StateOut
	if stateOut == "" {
		stateOut = runstate.FileName
	}
	if err := runstate.Save(stateOut, res.Failing, r.wallClock()); err != nil {
		errs = append(errs, err)
	}

	r.Metrics.LastRunTimestamp.Set(float64(r.wallClock().Unix()))
	return res, errors.Join(errs...)
}
