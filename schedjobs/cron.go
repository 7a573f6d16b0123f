package schedjobs

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is a set of matching minutes, hours, days of month and weekdays.
// Day 1 of the month is bit 0, Sunday is bit 0.
type Schedule struct {
	minutes  uint64
	hours    uint64
	days     uint64
	weekdays uint64
}

// Daily matches once a day at hour:minute
func Daily(hour, minute int) Schedule {
	return Schedule{
		minutes:  1 << minute,
		hours:    1 << hour,
		days:     span(0, 30),
		weekdays: span(0, 6),
	}
}

// ParseSchedule reads "<minute> <hour> <day-of-month> <weekday>".
// Each field is *, a value, a range a-b, a list of those, with an optional /step.
func ParseSchedule(expr string) (Schedule, error) {
	f := strings.Fields(expr)
	if len(f) != 4 {
		return Schedule{}, fmt.Errorf("schedule %q: want 4 fields, got %d", expr, len(f))
	}
	var s Schedule
	var err error
	if s.minutes, err = parseField(f[0], 0, 59); err != nil {
		return Schedule{}, fmt.Errorf("schedule %q minute: %w", expr, err)
	}
	if s.hours, err = parseField(f[1], 0, 23); err != nil {
		return Schedule{}, fmt.Errorf("schedule %q hour: %w", expr, err)
	}
	days, err := parseField(f[2], 1, 31)
	if err != nil {
		return Schedule{}, fmt.Errorf("schedule %q day: %w", expr, err)
	}
	s.days = days >> 1
	if s.weekdays, err = parseField(f[3], 0, 6); err != nil {
		return Schedule{}, fmt.Errorf("schedule %q weekday: %w", expr, err)
	}
	return s, nil
}

// span sets bits lo..hi
func span(lo, hi int) uint64 {
	return (1<<(hi-lo+1) - 1) << lo
}

func parseField(field string, lo, hi int) (uint64, error) {
	var bits uint64
	for _, part := range strings.Split(field, ",") {
		rng, stepStr, hasStep := strings.Cut(part, "/")
		step := 1
		if hasStep {
			n, err := strconv.Atoi(stepStr)
			if err != nil || n < 1 {
				return 0, fmt.Errorf("bad step %q", stepStr)
			}
			step = n
		}
		from, to := lo, hi
		if rng != "*" {
			a, b, isRange := strings.Cut(rng, "-")
			var err error
			if from, err = strconv.Atoi(a); err != nil {
				return 0, fmt.Errorf("bad value %q", a)
			}
			to = from
			if isRange {
				if to, err = strconv.Atoi(b); err != nil {
					return 0, fmt.Errorf("bad value %q", b)
				}
			} else if hasStep {
				to = hi
			}
		}
		if from < lo || to > hi || from > to {
			return 0, fmt.Errorf("%q out of %d-%d", part, lo, hi)
		}
		for v := from; v <= to; v += step {
			bits |= 1 << v
		}
	}
	return bits, nil
}

func (s Schedule) Matches(t time.Time) bool {
	return s.minutes&(1<<t.Minute()) != 0 &&
		s.hours&(1<<t.Hour()) != 0 &&
		s.days&(1<<(t.Day()-1)) != 0 &&
		s.weekdays&(1<<t.Weekday()) != 0
}

// Job is a task run at every minute its Schedule matches
type Job struct {
	ID         string
	Schedule   Schedule
	Task       func(ctx context.Context) error
	OnFinished func(error) // optional
}
