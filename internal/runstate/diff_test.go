package runstate

import (
	"strings"
	"testing"
)

func state(titles ...string) *State {
	st := &State{BadQueries: map[string]QueryDetail{}}
	for _, t := range titles {
		st.BadQueries[t] = QueryDetail{IssueCount: 1, Limits: "<1"}
	}
	return st
}

func failing(titles ...string) map[string]QueryDetail {
	return state(titles...).BadQueries
}

func entryTitles(d Decision) []string {
	var out []string
	for _, e := range d.Entries {
		out = append(out, e.Title)
	}
	return out
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name       string
		previous   *State
		current    map[string]QueryDetail
		wantKind   DecisionKind
		wantTitles []string
	}{
		{"first run with failures", nil, failing("A"), NoNotification, nil},
		{"first run all good", nil, failing(), NoNotification, nil},
		{"everything fixed", state("A"), failing(), AllClear, nil},
		{"new breakage", state(), failing("A"), Alert, []string{"A"}},
		{"additional breakage lists all", state("A"), failing("A", "B"), Alert, []string{"A", "B"}},
		{"partial recovery is silent", state("A", "B"), failing("A"), NoNotification, nil},
		{"steady bad", state("A"), failing("A"), NoNotification, nil},
		{"steady good", state(), failing(), NoNotification, nil},
		{"swap counts as breakage", state("A"), failing("B"), Alert, []string{"B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Diff(tt.previous, tt.current)
			if d.Kind != tt.wantKind {
				t.Fatalf("Kind = %v, want %v", d.Kind, tt.wantKind)
			}
			got := strings.Join(entryTitles(d), ",")
			want := strings.Join(tt.wantTitles, ",")
			if got != want {
				t.Errorf("entries = %q, want %q", got, want)
			}
		})
	}
}

func TestDecisionMessage(t *testing.T) {
	d := Diff(state(), map[string]QueryDetail{
		"Untriaged": {IssueCount: 12, Limits: "<10"},
		"Broken":    {Error: "missing total_count"},
	})
	want := ":red_circle: Some queries are exceeding limits:" +
		"\n• Broken (unable to evaluate: missing total_count)" +
		"\n• Untriaged (Issue count 12 exceeding limit of [<10])"
	if got := d.Message(); got != want {
		t.Errorf("Message() =\n%s\nwant\n%s", got, want)
	}

	allClear := Diff(state("A"), nil)
	if got := allClear.Message(); got != ":green_heart: All queries within limits again!" {
		t.Errorf("all clear message = %q", got)
	}

	if got := (Decision{}).Message(); got != "" {
		t.Errorf("no-notification message = %q, want empty", got)
	}
}
