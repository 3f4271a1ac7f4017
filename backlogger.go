// Package backlogger provides a minimal public API for embedding the
// escalation and threshold engine in other tools.
//
// The engine is pure: callers fetch journals and counts from their tracker,
// ask for a decision and carry it out themselves.
package backlogger

import (
	"time"

	"github.com/steveyegge/backlogger/internal/runstate"
	"github.com/steveyegge/backlogger/internal/slo"
	"github.com/steveyegge/backlogger/internal/threshold"
)

// Core types of the escalation engine
type (
	Priority      = slo.Priority
	Ladder        = slo.Ladder
	Journal       = slo.Journal
	ReminderState = slo.ReminderState
	Action        = slo.Action
	ActionKind    = slo.ActionKind
	DecisionInput = slo.Input
)

// Priority constants
const (
	Immediate = slo.Immediate
	Urgent    = slo.Urgent
	High      = slo.High
	Normal    = slo.Normal
	Low       = slo.Low
)

// Action kinds
const (
	ActionNone                  = slo.ActionNone
	ActionFirstReminder         = slo.ActionFirstReminder
	ActionRepeatAndDeprioritize = slo.ActionRepeatAndDeprioritize
	ActionSkipAlreadyLowest     = slo.ActionSkipAlreadyLowest
)

// Threshold and run state types
type (
	Bounds         = threshold.Bounds
	Verdict        = threshold.Verdict
	QueryDetail    = runstate.QueryDetail
	RunState       = runstate.State
	NotifyDecision = runstate.Decision
)

// ReminderPattern recognizes reminder notes on tickets.
const ReminderPattern = slo.ReminderPatternV1

// NewLadder returns the SLO periods in effect at now.
func NewLadder(now time.Time) Ladder {
	return slo.NewLadder(now)
}

// ScanHistory finds the most recent reminder in a ticket's journals.
func ScanHistory(journals []Journal) ReminderState {
	return slo.ScanHistory(journals)
}

// Decide returns the escalation action for one ticket.
func Decide(in DecisionInput) Action {
	return slo.Decide(in)
}

// Evaluate checks an issue count against its bounds.
func Evaluate(count int, b Bounds) (Verdict, error) {
	return threshold.Evaluate(count, b)
}

// Diff decides whether the change in failing queries warrants a notification.
func Diff(previous *RunState, current map[string]QueryDetail) NotifyDecision {
	return runstate.Diff(previous, current)
}
