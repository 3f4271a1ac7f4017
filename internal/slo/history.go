package slo

import (
	"regexp"
	"time"
)

// ReminderPatternV1 recognizes reminder notes posted on tickets. Reminders
// written by earlier runs are only found again while this pattern still
// matches them, so it must not change without a new version.
const ReminderPatternV1 = `^This ticket was set to .* priority but was not updated.* Please consider`

var reminderRe = regexp.MustCompile(ReminderPatternV1)

// Journal is one entry of a ticket's change history.
type Journal struct {
	CreatedOn time.Time
	Notes     string
}

// ReminderState is what the history of one ticket says about earlier
// reminders. LastReminder is only meaningful when HasReminder is true.
type ReminderState struct {
	HasReminder  bool
	LastReminder time.Time
}

// IsReminder reports whether a note is an escalation reminder.
func IsReminder(notes string) bool {
	return reminderRe.MatchString(notes)
}

// ScanHistory walks journals in the order given (oldest first) and records
// the most recent reminder note.
func ScanHistory(journals []Journal) ReminderState {
	var st ReminderState
	for _, j := range journals {
		if j.Notes == "" {
			continue
		}
		if IsReminder(j.Notes) {
			st.HasReminder = true
			st.LastReminder = j.CreatedOn
		}
	}
	return st
}
