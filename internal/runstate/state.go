// Package runstate persists the set of failing queries between runs and
// decides whether a change in that set is worth a notification.
package runstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName is the name of the state file inside the state folder.
const FileName = "state.json"

// QueryDetail describes one failing query.
type QueryDetail struct {
	URL        string `json:"url"`
	IssueCount int    `json:"issue_count"`
	Limits     string `json:"limits"`
	// Error is set when the query could not be evaluated at all.
	Error string `json:"error,omitempty"`
}

// State is the content of state.json.
type State struct {
	BadQueries map[string]QueryDetail `json:"bad_queries"`
	// Updated is kept as text: files written by older tools carry ISO-8601
	// timestamps without a zone.
	Updated string `json:"updated"`
}

// Titles returns the failing query titles.
func (s *State) Titles() []string {
	titles := make([]string, 0, len(s.BadQueries))
	for t := range s.BadQueries {
		titles = append(titles, t)
	}
	return titles
}

// Load reads state.json from dir. An empty dir or a missing file means
// there is no previous run and returns nil, nil.
func Load(dir string) (*State, error) {
	if dir == "" {
		return nil, nil
	}
	path := filepath.Join(dir, FileName)
	// #nosec G304 -- path is the configured state folder
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state %s: %w", path, err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", path, err)
	}
	if st.BadQueries == nil {
		st.BadQueries = map[string]QueryDetail{}
	}
	return &st, nil
}

// Save replaces the state file at path with the given failing set.
func Save(path string, bad map[string]QueryDetail, now time.Time) error {
	if bad == nil {
		bad = map[string]QueryDetail{}
	}
	data, err := json.Marshal(State{BadQueries: bad, Updated: now.Format(time.RFC3339)})
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state: %w", err)
	}
	// #nosec G302 -- state is published next to the report
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod state: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace state %s: %w", path, err)
	}
	return nil
}
