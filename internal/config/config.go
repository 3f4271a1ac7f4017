// Package config loads the queries file and the environment settings of a
// backlogger run into one explicit value that is passed to every component.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/steveyegge/backlogger/internal/threshold"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the queries file used when none is given.
const DefaultPath = "queries.yaml"

var (
	// ErrNotFound is returned when the queries file does not exist.
	ErrNotFound = errors.New("configuration file not found")
	// ErrMissingAPIKey is returned when no tracker credential is set.
	ErrMissingAPIKey = errors.New("REDMINE_API_KEY is required to be set")
)

// Query is one monitored tracker query.
type Query struct {
	Title string `yaml:"title"`
	Query string `yaml:"query"`
	Min   *int   `yaml:"min,omitempty"`
	Max   *int   `yaml:"max,omitempty"`
	// Comment replaces the templated first reminder on tickets of this query.
	Comment string `yaml:"comment,omitempty"`
	// SLO marks the query's tickets for the escalation protocol. When
	// unset, queries filtering on updated_on are tracked.
	SLO *bool `yaml:"slo,omitempty"`
}

// Bounds returns the threshold bounds of q.
func (q Query) Bounds() threshold.Bounds {
	return threshold.Bounds{Min: q.Min, Max: q.Max}
}

// Tracked reports whether tickets of q take part in the escalation protocol.
func (q Query) Tracked() bool {
	if q.SLO != nil {
		return *q.SLO
	}
	return strings.Contains(q.Query, "updated_on")
}

// Config is the content of the queries file plus environment settings.
type Config struct {
	Team string `yaml:"team"`
	// URL is the team dashboard and SLO policy page linked from reminders.
	URL string `yaml:"url"`
	// Web is the tracker issues base, e.g. https://progress.example.com/issues
	Web string `yaml:"web"`
	// API is the issues JSON endpoint, e.g. https://progress.example.com/issues.json
	API     string  `yaml:"api"`
	Theme   string  `yaml:"theme,omitempty"`
	Queries []Query `yaml:"queries"`

	Settings Settings `yaml:"-"`
}

// Load reads and validates the queries file at path.
func Load(path string) (*Config, error) {
	// #nosec G304 -- path is supplied by the operator
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a queries file.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Theme == "" {
		cfg.Theme = "modern"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the queries file for problems that would break a run.
func (c *Config) Validate() error {
	var errs []error
	if c.Web == "" {
		errs = append(errs, errors.New("web: required"))
	}
	if c.API == "" {
		errs = append(errs, errors.New("api: required"))
	}
	if len(c.Queries) == 0 {
		errs = append(errs, errors.New("queries: at least one query is required"))
	}

	seen := make(map[string]bool, len(c.Queries))
	for i, q := range c.Queries {
		switch {
		case q.Title == "":
			errs = append(errs, fmt.Errorf("queries[%d].title: required", i))
		case seen[q.Title]:
			errs = append(errs, fmt.Errorf("queries[%d].title: duplicate %q", i, q.Title))
		}
		seen[q.Title] = true

		if q.Query == "" {
			errs = append(errs, fmt.Errorf("queries[%d].query: required", i))
		}
		if q.Min != nil && q.Max != nil && *q.Min > *q.Max {
			errs = append(errs, fmt.Errorf("queries[%d]: min %d exceeds max %d", i, *q.Min, *q.Max))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
