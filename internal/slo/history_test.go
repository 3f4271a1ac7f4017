package slo

import (
	"testing"
	"time"
)

func TestScanHistoryLatestWins(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC)
	journals := []Journal{
		{CreatedOn: t1, Notes: FirstReminderMessage(High, "https://example.com/slo")},
		{CreatedOn: t1.Add(time.Hour), Notes: "Looking into it"},
		{CreatedOn: t1.Add(2 * time.Hour)},
		{CreatedOn: t2, Notes: FirstReminderMessage(High, "https://example.com/slo")},
	}

	st := ScanHistory(journals)
	if !st.HasReminder {
		t.Fatal("expected a reminder to be found")
	}
	if !st.LastReminder.Equal(t2) {
		t.Errorf("LastReminder = %v, want %v", st.LastReminder, t2)
	}
}

func TestScanHistoryEmpty(t *testing.T) {
	if st := ScanHistory(nil); st.HasReminder {
		t.Error("empty history must not report a reminder")
	}
}

func TestScanHistoryNoMatch(t *testing.T) {
	st := ScanHistory([]Journal{
		{CreatedOn: time.Now(), Notes: ""},
		{CreatedOn: time.Now(), Notes: "Status changed"},
	})
	if st.HasReminder {
		t.Error("unexpected reminder")
	}
}

func TestIsReminder(t *testing.T) {
	tests := []struct {
		name  string
		notes string
		want  bool
	}{
		{"templated first reminder", FirstReminderMessage(Urgent, "https://x"), true},
		{"bare phrase", "This ticket was set to Low priority but was not updated. Please consider it", true},
		{"not anchored", "Hi! This ticket was set to High priority but was not updated. Please consider", false},
		{"case sensitive", "this ticket was set to High priority but was not updated. Please consider", false},
		{"repeat notice does not ask", RepeatMessage(High, Normal, "https://x"), false},
		{"phrase split across lines", "This ticket was set to High priority\nbut was not updated. Please consider", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsReminder(tt.notes); got != tt.want {
				t.Errorf("IsReminder(%q) = %v, want %v", tt.notes, got, tt.want)
			}
		})
	}
}
