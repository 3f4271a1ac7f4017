package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
team: QA
url: https://qa.example.com/slo
web: https://progress.example.com/issues
api: https://progress.example.com/issues.json
queries:
  - title: Untriaged
    query: query_id=576
    max: 0
  - title: Urgent past SLO
    query: f[]=updated_on&op[updated_on]=<t-&v[updated_on][]=1
    max: 0
  - title: Backlog size
    query: query_id=230
    min: 20
    max: 100
    comment: Please have a look.
    slo: false
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "QA", cfg.Team)
	assert.Equal(t, "modern", cfg.Theme)
	require.Len(t, cfg.Queries, 3)

	backlog := cfg.Queries[2]
	require.NotNil(t, backlog.Min)
	require.NotNil(t, backlog.Max)
	assert.Equal(t, 20, *backlog.Min)
	assert.Equal(t, 100, *backlog.Max)
	assert.Equal(t, "Please have a look.", backlog.Comment)

	b := backlog.Bounds()
	assert.Equal(t, 20, *b.Min)
	assert.Equal(t, 100, *b.Max)

	assert.Nil(t, cfg.Queries[0].Min)
}

func TestTracked(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	assert.False(t, cfg.Queries[0].Tracked(), "plain query is not tracked")
	assert.True(t, cfg.Queries[1].Tracked(), "updated_on query is tracked")
	assert.False(t, cfg.Queries[2].Tracked(), "explicit slo: false wins")

	on := true
	q := Query{Title: "x", Query: "query_id=1", SLO: &on}
	assert.True(t, q.Tracked())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no queries",
			yaml:    "web: w\napi: a\n",
			wantErr: "at least one query",
		},
		{
			name:    "missing endpoints",
			yaml:    "queries:\n  - title: a\n    query: q\n",
			wantErr: "web: required",
		},
		{
			name:    "duplicate title",
			yaml:    "web: w\napi: a\nqueries:\n  - title: a\n    query: q\n  - title: a\n    query: r\n",
			wantErr: `duplicate "a"`,
		},
		{
			name:    "empty query",
			yaml:    "web: w\napi: a\nqueries:\n  - title: a\n",
			wantErr: "queries[0].query: required",
		},
		{
			name:    "min above max",
			yaml:    "web: w\napi: a\nqueries:\n  - title: a\n    query: q\n    min: 5\n    max: 2\n",
			wantErr: "min 5 exceeds max 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queries.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Queries, 3)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("REDMINE_API_KEY", "legacy-key")
	t.Setenv("STATE_FOLDER", "/tmp/state")
	t.Setenv("BACKLOGGER_WEBHOOK_URL", "https://hooks.example.com")

	s := SettingsFrom(NewViper())
	assert.Equal(t, "legacy-key", s.APIKey)
	assert.Equal(t, "/tmp/state", s.StateFolder)
	assert.Equal(t, "https://hooks.example.com", s.WebhookURL)
	assert.Empty(t, s.SlackWebhookURL)
	assert.NoError(t, s.RequireAPIKey())
}

func TestPrefixedEnvWins(t *testing.T) {
	t.Setenv("REDMINE_API_KEY", "legacy-key")
	t.Setenv("BACKLOGGER_API_KEY", "new-key")

	s := SettingsFrom(NewViper())
	assert.Equal(t, "new-key", s.APIKey)
}

func TestRequireAPIKey(t *testing.T) {
	assert.ErrorIs(t, Settings{}.RequireAPIKey(), ErrMissingAPIKey)
}
