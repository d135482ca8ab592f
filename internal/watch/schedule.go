package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule is either a cron expression or a fixed interval.
type Schedule struct {
	cron  cron.Schedule
	every time.Duration
}

// DefaultSchedule sweeps once a minute.
func DefaultSchedule() Schedule { return Schedule{every: time.Minute} }

// ParseSchedule accepts:
//   - a crontab expression: "*/5 * * * *", "@hourly", "@every 10m"
//   - a Go duration: "60s", "2m30s"
//
// Anything with whitespace or a leading '@' is treated as cron; the rest
// must parse as a duration.
func ParseSchedule(raw string) (Schedule, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DefaultSchedule(), nil
	}

	if strings.ContainsAny(s, " \t") || strings.HasPrefix(s, "@") {
		sched, err := cron.ParseStandard(s)
		if err != nil {
			return Schedule{}, fmt.Errorf("invalid cron schedule %q: %w", raw, err)
		}
		return Schedule{cron: sched}, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid schedule %q (use cron like '*/5 * * * *' or a duration like '60s'): %w", raw, err)
	}
	if d <= 0 {
		return Schedule{}, fmt.Errorf("invalid schedule %q: interval must be > 0", raw)
	}
	return Schedule{every: d}, nil
}

// Next returns the next sweep time after t.
func (s Schedule) Next(t time.Time) time.Time {
	if s.cron != nil {
		return s.cron.Next(t)
	}
	every := s.every
	if every <= 0 {
		every = time.Minute
	}
	return t.Add(every)
}

func (s Schedule) String() string {
	if s.cron != nil {
		return "cron"
	}
	return s.every.String()
}
