package runstate

import (
	"fmt"
	"sort"
	"strings"
)

// DecisionKind says whether and how to notify about a run.
type DecisionKind int

const (
	NoNotification DecisionKind = iota
	// Alert is sent when at least one query broke since the previous run.
	Alert
	// AllClear is sent on the first run where every query passes again.
	AllClear
)

func (k DecisionKind) String() string {
	switch k {
	case Alert:
		return "alert"
	case AllClear:
		return "all-clear"
	default:
		return "none"
	}
}

// Entry is one failing query listed in an Alert.
type Entry struct {
	Title string
	QueryDetail
}

// Decision is the outcome of Diff.
type Decision struct {
	Kind DecisionKind
	// Entries lists every currently failing query, sorted by title, when
	// Kind is Alert.
	Entries []Entry
	Fixed   []string
	Broken  []string
}

// Diff compares the failing set of the previous run with the current one.
// Once anything new breaks, the alert lists all failing queries. A shrinking
// but non-empty failing set stays silent.
func Diff(previous *State, current map[string]QueryDetail) Decision {
	if previous == nil {
		return Decision{Kind: NoNotification}
	}

	var d Decision
	for title := range previous.BadQueries {
		if _, ok := current[title]; !ok {
			d.Fixed = append(d.Fixed, title)
		}
	}
	for title := range current {
		if _, ok := previous.BadQueries[title]; !ok {
			d.Broken = append(d.Broken, title)
		}
	}
	sort.Strings(d.Fixed)
	sort.Strings(d.Broken)

	switch {
	case len(d.Broken) > 0:
		d.Kind = Alert
		for title, detail := range current {
			d.Entries = append(d.Entries, Entry{Title: title, QueryDetail: detail})
		}
		sort.Slice(d.Entries, func(i, j int) bool { return d.Entries[i].Title < d.Entries[j].Title })
	case len(d.Fixed) > 0 && len(current) == 0:
		d.Kind = AllClear
	default:
		d.Kind = NoNotification
	}
	return d
}

// Message renders the notification text, or "" for NoNotification.
func (d Decision) Message() string {
	switch d.Kind {
	case Alert:
		var b strings.Builder
		b.WriteString(":red_circle: Some queries are exceeding limits:")
		for _, e := range d.Entries {
			if e.Error != "" {
				fmt.Fprintf(&b, "\n• %s (unable to evaluate: %s)", e.Title, e.Error)
				continue
			}
			fmt.Fprintf(&b, "\n• %s (Issue count %d exceeding limit of [%s])", e.Title, e.IssueCount, e.Limits)
		}
		return b.String()
	case AllClear:
		return ":green_heart: All queries within limits again!"
	default:
		return ""
	}
}
