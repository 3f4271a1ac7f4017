package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/steveyegge/backlogger/internal/redmine"
)

// Element is the part of a line-protocol line a value is written to. Each
// part has its own escaping rules.
type Element int

const (
	Measurement Element = iota
	TagValue
	FieldValue
)

// ResolvedStatus is the status whose tickets get lead and cycle time.
const ResolvedStatus = "Resolved"

// InCycleStatuses are the statuses during which a ticket is actively worked on.
var InCycleStatuses = []string{"In Progress", "Feedback"}

// Escape escapes s for use as the given line-protocol element.
func Escape(s string, el Element) string {
	if el == FieldValue {
		s = strings.ReplaceAll(s, `\`, `\\`)
		return strings.ReplaceAll(s, `"`, `\"`)
	}
	s = strings.ReplaceAll(s, ",", `\,`)
	s = strings.ReplaceAll(s, " ", `\ `)
	if el != Measurement {
		s = strings.ReplaceAll(s, "=", `\=`)
	}
	return s
}

// StatusStats aggregates the tickets of one query with the same status.
// Tickets counts every ticket of the group, including those whose times
// could not be determined and are missing from the aggregates.
type StatusStats struct {
	Status     string
	Tickets    int
	LeadTimes  []time.Duration
	CycleTimes []time.Duration
}

// Count is the number of tickets in the group.
func (s StatusStats) Count() int {
	return s.Tickets
}

// InfluxLines renders the line-protocol lines of one query. Resolved
// tickets become a leadTime measurement stamped with ts (nanoseconds), all
// other statuses an slo measurement without timestamp.
func InfluxLines(team, title string, stats []StatusStats, ts int64) []string {
	lines := make([]string, 0, len(stats))
	for _, s := range stats {
		measure := "slo"
		var extra string
		if s.Status == ResolvedStatus {
			measure = "leadTime"
			extra = fmt.Sprintf(",leadTime=%s,cycleTime=%s,leadTimeSum=%s,cycleTimeSum=%s",
				hoursField(mean(s.LeadTimes)),
				hoursField(mean(s.CycleTimes)),
				hoursField(sum(s.LeadTimes)),
				hoursField(sum(s.CycleTimes)),
			)
		}

		line := fmt.Sprintf(`%s,team="%s",status="%s",title="%s" count=%s%s`,
			Escape(measure, Measurement),
			Escape(team, TagValue),
			Escape(s.Status, TagValue),
			Escape(title, TagValue),
			Escape(strconv.Itoa(s.Count()), FieldValue),
			extra,
		)
		if s.Status == ResolvedStatus {
			line += " " + strconv.FormatInt(ts, 10)
		}
		lines = append(lines, line)
	}
	return lines
}

// MidnightNanos returns the start of now's calendar day, read as UTC, in
// nanoseconds since the epoch.
func MidnightNanos(now time.Time) int64 {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).UnixNano()
}

// LeadTime is the time from creation to the last update of an issue.
func LeadTime(issue redmine.Issue) (time.Duration, error) {
	start, err := redmine.ParseTimestamp(issue.CreatedOn)
	if err != nil {
		return 0, err
	}
	end, err := redmine.ParseTimestamp(issue.UpdatedOn)
	if err != nil {
		return 0, err
	}
	return end.Sub(start), nil
}

// CycleTime sums the spans an issue spent in one of the in-cycle statuses.
// inCycle holds the status ids as they appear in journal details. A span
// starts at creation or when the status changes into the cycle and ends when
// it changes out of it.
func CycleTime(createdOn string, journals []redmine.Journal, inCycle map[string]bool) (time.Duration, error) {
	start, err := redmine.ParseTimestamp(createdOn)
	if err != nil {
		return 0, err
	}

	var total time.Duration
	for _, j := range journals {
		for _, d := range j.Details {
			if d.Name != "status_id" {
				continue
			}
			switch {
			case inCycle[d.NewValue]:
				if start, err = redmine.ParseTimestamp(j.CreatedOn); err != nil {
					return 0, err
				}
			case inCycle[d.OldValue]:
				end, err := redmine.ParseTimestamp(j.CreatedOn)
				if err != nil {
					return 0, err
				}
				total += end.Sub(start)
			}
		}
	}
	return total, nil
}

func hoursField(d time.Duration) string {
	return Escape(strconv.FormatFloat(d.Hours(), 'f', -1, 64), FieldValue)
}

func sum(ds []time.Duration) time.Duration {
	var total time.Duration
	for _, d := range ds {
		total += d
	}
	return total
}

func mean(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	return sum(ds) / time.Duration(len(ds))
}
