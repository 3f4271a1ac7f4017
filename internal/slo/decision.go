package slo

import (
	"fmt"
	"time"
)

// ActionKind enumerates the outcomes of Decide.
type ActionKind int

const (
	// ActionNone means leave the ticket alone this run.
	ActionNone ActionKind = iota
	// ActionFirstReminder means post a reminder note.
	ActionFirstReminder
	// ActionRepeatAndDeprioritize means post a note and lower the priority.
	ActionRepeatAndDeprioritize
	// ActionSkipAlreadyLowest means a reminder exists but Low cannot drop further.
	ActionSkipAlreadyLowest
)

func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionFirstReminder:
		return "first-reminder"
	case ActionRepeatAndDeprioritize:
		return "repeat-and-deprioritize"
	case ActionSkipAlreadyLowest:
		return "skip-already-lowest"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// Action is the outcome of Decide. Message is set for the two note-posting
// kinds, NewPriority only for ActionRepeatAndDeprioritize.
type Action struct {
	Kind        ActionKind
	Message     string
	NewPriority Priority
	Reason      string
}

// Input carries everything Decide looks at.
type Input struct {
	// Tracked is false for tickets from queries that are not SLO-tracked.
	Tracked  bool
	Priority Priority
	State    ReminderState
	Now      time.Time
	Ladder   Ladder
	// Comment overrides the templated first reminder when non-empty.
	Comment string
	// PolicyURL is linked from the templated messages.
	PolicyURL string
}

// Decide returns what should happen to a ticket. It has no side effects;
// callers post notes and change priorities based on the result.
func Decide(in Input) Action {
	if !in.Tracked {
		return Action{Kind: ActionNone, Reason: "query is not SLO-tracked"}
	}

	if !in.State.HasReminder {
		msg := in.Comment
		if msg == "" {
			msg = FirstReminderMessage(in.Priority, in.PolicyURL)
		}
		return Action{Kind: ActionFirstReminder, Message: msg, Reason: "no reminder found"}
	}

	if in.Priority.IsTerminal() {
		return Action{Kind: ActionSkipAlreadyLowest, Reason: "reminder exists, already at lowest priority"}
	}

	rung, ok := in.Ladder.Step(in.Priority)
	if !ok {
		return Action{Kind: ActionNone, Reason: fmt.Sprintf("priority %q is not on the SLO ladder", in.Priority)}
	}

	due := in.State.LastReminder.Add(rung.Period)
	if in.Now.Before(due) {
		return Action{Kind: ActionNone, Reason: fmt.Sprintf("reminder exists, SLO period ends %s", due.Format(time.RFC3339))}
	}

	return Action{
		Kind:        ActionRepeatAndDeprioritize,
		Message:     RepeatMessage(in.Priority, rung.Next, in.PolicyURL),
		NewPriority: rung.Next,
		Reason:      fmt.Sprintf("no response to reminder, reducing priority from %s to %s", in.Priority, rung.Next),
	}
}
