package threshold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		count      int
		bounds     Bounds
		wantPass   bool
		wantLimits string
	}{
		{"above max", 10, Bounds{Max: intp(9)}, false, "<10"},
		{"at max", 9, Bounds{Max: intp(9)}, true, "<10"},
		{"below min", 5, Bounds{Max: intp(9), Min: intp(6)}, false, "<10, >5"},
		{"within range", 7, Bounds{Max: intp(9), Min: intp(6)}, true, "<10, >5"},
		{"at min", 6, Bounds{Max: intp(9), Min: intp(6)}, true, "<10, >5"},
		{"no bounds", 1000, Bounds{}, true, ""},
		{"min only never fails", 0, Bounds{Min: intp(3)}, true, ", >2"},
		{"zero max", 0, Bounds{Max: intp(0)}, true, "<1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Evaluate(tt.count, tt.bounds)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPass, v.Pass)
			assert.Equal(t, tt.wantLimits, v.Limits)
		})
	}
}

func TestEvaluateRejectsNegativeCount(t *testing.T) {
	_, err := Evaluate(-1, Bounds{Max: intp(3)})
	assert.Error(t, err)
}
