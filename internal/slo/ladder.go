// Package slo implements the ticket escalation protocol: the priority
// ladder, reminder detection in ticket history and the decision of what to
// do with a ticket that sat too long at its priority.
package slo

import (
	"fmt"
	"time"
)

// Priority is a tracker priority level, identified by its name.
type Priority string

// Priority levels, highest first.
const (
	Immediate Priority = "Immediate"
	Urgent    Priority = "Urgent"
	High      Priority = "High"
	Normal    Priority = "Normal"
	Low       Priority = "Low"
)

// priorityIDs maps a level to its Redmine priority_id.
var priorityIDs = map[Priority]int{
	Immediate: 7,
	Urgent:    6,
	High:      5,
	Normal:    4,
	Low:       3,
}

// ID returns the tracker priority_id for p, or 0 if p is not a known level.
func (p Priority) ID() int {
	return priorityIDs[p]
}

// IsTerminal reports whether p is the lowest level on the ladder.
func (p Priority) IsTerminal() bool {
	return p == Low
}

// Rung is one non-terminal level of the ladder.
type Rung struct {
	Period time.Duration
	Next   Priority
}

// Ladder maps each non-terminal priority to its SLO period and the level a
// ticket falls back to. Low has no rung.
type Ladder map[Priority]Rung

// NewLadder computes the ladder for the given date. High and Normal depend
// on the calendar, so the ladder must be rebuilt for every run.
func NewLadder(now time.Time) Ladder {
	return Ladder{
		Immediate: {Period: days(1), Next: Urgent},
		Urgent:    {Period: days(7), Next: High},
		High:      {Period: days(DaysInMonth(now.Year(), now.Month())), Next: Normal},
		Normal:    {Period: days(DaysInYear(now.Year())), Next: Low},
	}
}

// Step returns the rung for p. ok is false for Low and for unknown levels.
func (l Ladder) Step(p Priority) (Rung, bool) {
	r, ok := l[p]
	return r, ok
}

// Levels returns the ladder levels from highest to lowest, Low included.
func Levels() []Priority {
	return []Priority{Immediate, Urgent, High, Normal, Low}
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the following month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysInYear sums the day counts of all twelve months of year.
func DaysInYear(year int) int {
	total := 0
	for m := time.January; m <= time.December; m++ {
		total += DaysInMonth(year, m)
	}
	return total
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// String renders the ladder one rung per line, highest priority first.
func (l Ladder) String() string {
	var s string
	for _, p := range Levels() {
		r, ok := l[p]
		if !ok {
			s += fmt.Sprintf("%-9s terminal\n", p)
			continue
		}
		s += fmt.Sprintf("%-9s %3d days -> %s\n", p, int(r.Period/(24*time.Hour)), r.Next)
	}
	return s
}
