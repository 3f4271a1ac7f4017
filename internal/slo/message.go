package slo

import "fmt"

const (
	reminderCommon = "This ticket was set to **%s** priority but was not updated [within the SLO period](%s)."
	reminderAsk    = "Please consider picking up this ticket or just set the ticket to the next lower priority."
	reminderDrop   = "The ticket will be set to the next lower priority **%s**."
)

// FirstReminderMessage is the templated note posted as a first reminder.
// It matches ReminderPatternV1.
func FirstReminderMessage(p Priority, policyURL string) string {
	return fmt.Sprintf(reminderCommon, p, policyURL) + " " + reminderAsk
}

// RepeatMessage is the note posted when a ticket drops to next.
func RepeatMessage(p, next Priority, policyURL string) string {
	return fmt.Sprintf(reminderCommon, p, policyURL) + " " + fmt.Sprintf(reminderDrop, next)
}
