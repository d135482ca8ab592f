package watch

import (
	"testing"
	"time"
)

func TestParseScheduleVariants(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		next time.Time
	}{
		{name: "empty defaults to a minute", raw: "", next: base.Add(time.Minute)},
		{name: "duration", raw: "90s", next: base.Add(90 * time.Second)},
		{name: "cron every 5m", raw: "*/5 * * * *", next: time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC)},
		{name: "cron hourly", raw: "@hourly", next: time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSchedule(tt.raw)
			if err != nil {
				t.Fatalf("ParseSchedule(%q) error: %v", tt.raw, err)
			}
			if got := s.Next(base); !got.Equal(tt.next) {
				t.Fatalf("Next = %v, want %v", got, tt.next)
			}
		})
	}
}

func TestParseScheduleInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"not-a-schedule", "-5s", "0s", "* * *"} {
		if _, err := ParseSchedule(raw); err == nil {
			t.Fatalf("ParseSchedule(%q): expected error", raw)
		}
	}
}
