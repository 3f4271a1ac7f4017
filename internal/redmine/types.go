package redmine

import (
	"fmt"
	"time"
)

// Ref is an id/name pair as Redmine embeds it for priorities, statuses etc.
type Ref struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Issue is a Redmine issue as returned by the issues endpoint.
type Issue struct {
	ID        int    `json:"id"`
	Subject   string `json:"subject"`
	Priority  Ref    `json:"priority"`
	Status    Ref    `json:"status"`
	CreatedOn string `json:"created_on"`
	UpdatedOn string `json:"updated_on"`
}

// Journal is one history entry of an issue.
type Journal struct {
	ID        int             `json:"id"`
	CreatedOn string          `json:"created_on"`
	Notes     string          `json:"notes"`
	Details   []JournalDetail `json:"details"`
}

// JournalDetail is a single field change recorded in a journal.
type JournalDetail struct {
	Property string `json:"property"`
	Name     string `json:"name"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// SearchResult is a page of issues matching a query.
type SearchResult struct {
	Issues     []Issue
	TotalCount int
}

// Status is an entry of the issue_statuses endpoint.
type Status = Ref

// MissingFieldError reports a response that was fetched and decoded fine
// but lacks a field the caller depends on.
type MissingFieldError struct {
	Field string
	URL   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("response from %s has no %q field", e.URL, e.Field)
}

// HTTPError is a non-2xx response from the tracker.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// timestampLayout is the format Redmine uses for created_on/updated_on.
const timestampLayout = "2006-01-02T15:04:05Z07:00"

// ParseTimestamp parses a Redmine timestamp such as "2025-01-15T10:30:00Z".
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
