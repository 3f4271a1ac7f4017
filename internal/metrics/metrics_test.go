package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.QueriesChecked.WithLabelValues(ResultPass).Inc()
	r.QueriesChecked.WithLabelValues(ResultFail).Add(2)
	r.IssueCount.WithLabelValues("Untriaged").Set(12)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.QueriesChecked.WithLabelValues(ResultPass)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.QueriesChecked.WithLabelValues(ResultFail)))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.IssueCount.WithLabelValues("Untriaged")))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.PriorityDrops.WithLabelValues("High").Inc()

	path := filepath.Join(t.TempDir(), "backlogger.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `backlogger_priority_drops_total{priority="High"} 1`), string(data))
}

func TestWriteTextfileBadPath(t *testing.T) {
	r := New()
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.Error(t, err)
}
