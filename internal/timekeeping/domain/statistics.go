package domain

import (
	"time"

	"github.com/punchclock/punchclock-backend/pkg/clock"
)

// Daily average divisors
const (
	// AverageEntryDays divides by the number of dates that have entries.
	AverageEntryDays = "entry_days"
	// AverageBusinessDays divides by the Monday to Friday dates in the
	// window once enough dates have entries.
	AverageBusinessDays = "business_days"
)

// AverageConfig selects how the daily average is computed.
type AverageConfig struct {
	Mode               string
	WindowDays         int
	MinBusinessSamples int
}

// DefaultAverageConfig averages over days with entries in a 30 day window.
func DefaultAverageConfig() AverageConfig {
	return AverageConfig{Mode: AverageEntryDays, WindowDays: 30, MinBusinessSamples: 3}
}

// Statistics is the weekly and daily summary for one employee.
type Statistics struct {
	WeeklyHours  Hours      `json:"weekly_hours"`
	DailyAverage Hours      `json:"daily_average"`
	WeekStart    clock.Date `json:"week_start"`
	WeekEnd      clock.Date `json:"week_end"`
	WindowStart  clock.Date `json:"window_start"`
	AsOf         clock.Date `json:"as_of"`
	DaysWorked   int        `json:"days_worked"`
	Mode         string     `json:"mode"`
}

// WeekBounds returns the Monday and Sunday of the ISO week containing d.
func WeekBounds(d clock.Date) (clock.Date, clock.Date) {
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	start := d.AddDays(-offset)
	return start, start.AddDays(6)
}

// AverageWindow returns the inclusive window of windowDays ending at asOf.
func AverageWindow(asOf clock.Date, windowDays int) (clock.Date, clock.Date) {
	if windowDays < 1 {
		windowDays = 1
	}
	return asOf.AddDays(-(windowDays - 1)), asOf
}

// StatisticsRange is the span of dates needed to compute both figures.
func StatisticsRange(asOf clock.Date, cfg AverageConfig) (clock.Date, clock.Date) {
	weekStart, weekEnd := WeekBounds(asOf)
	windowStart, _ := AverageWindow(asOf, cfg.WindowDays)
	from := weekStart
	if windowStart.Before(from) {
		from = windowStart
	}
	to := weekEnd
	if asOf.After(to) {
		to = asOf
	}
	return from, to
}

// WeeklyHours sums verified hours in the Monday to Sunday week of asOf.
func WeeklyHours(entries []TimeEntry, asOf clock.Date) Hours {
	start, end := WeekBounds(asOf)
	var total Hours
	for i := range entries {
		e := &entries[i]
		if e.SessionVerified && e.Date.Between(start, end) {
			total += e.TotalHours
		}
	}
	return total
}

// DailyAverage averages verified hours per worked day over the window
// ending at asOf. Days without entries do not lower the average in
// entry_days mode. No entries gives zero.
func DailyAverage(entries []TimeEntry, asOf clock.Date, cfg AverageConfig) Hours {
	avg, _ := dailyAverage(entries, asOf, cfg)
	return avg
}

func dailyAverage(entries []TimeEntry, asOf clock.Date, cfg AverageConfig) (Hours, int) {
	from, to := AverageWindow(asOf, cfg.WindowDays)

	perDay := make(map[clock.Date]Hours)
	var total Hours
	for i := range entries {
		e := &entries[i]
		if !e.SessionVerified || !e.Date.Between(from, to) {
			continue
		}
		perDay[e.Date] += e.TotalHours
		total += e.TotalHours
	}

	days := len(perDay)
	if days == 0 {
		return 0, 0
	}

	divisor := days
	if cfg.Mode == AverageBusinessDays && days >= cfg.MinBusinessSamples {
		if n := BusinessDays(from, to); n > 0 {
			divisor = n
		}
	}

	return divideHalfUp(total, divisor), days
}

// BusinessDays counts Monday to Friday dates in [from, to].
func BusinessDays(from, to clock.Date) int {
	n := 0
	for d := from; !d.After(to); d = d.AddDays(1) {
		if d.IsWeekday() {
			n++
		}
	}
	return n
}

// ComputeStatistics builds both figures from the entries of one employee.
func ComputeStatistics(entries []TimeEntry, asOf clock.Date, cfg AverageConfig) Statistics {
	weekStart, weekEnd := WeekBounds(asOf)
	windowStart, _ := AverageWindow(asOf, cfg.WindowDays)
	avg, days := dailyAverage(entries, asOf, cfg)

	mode := cfg.Mode
	if mode == "" {
		mode = AverageEntryDays
	}

	return Statistics{
		WeeklyHours:  WeeklyHours(entries, asOf),
		DailyAverage: avg,
		WeekStart:    weekStart,
		WeekEnd:      weekEnd,
		WindowStart:  windowStart,
		AsOf:         asOf,
		DaysWorked:   days,
		Mode:         mode,
	}
}

// AverageTenths rounds total/n to one decimal, half-up, returned in hundredths.
func AverageTenths(total Hours, n int) Hours {
	if n <= 0 {
		return 0
	}
	tenths := (2*int64(total) + 10*int64(n)) / (20 * int64(n))
	return Hours(tenths * 10)
}

func divideHalfUp(total Hours, n int) Hours {
	return Hours((2*int64(total) + int64(n)) / (2 * int64(n)))
}

// RecentDays is how far back GetRecentActivities looks, in days before today.
const RecentDays = 4

// RecentLimit caps the recent activity list.
const RecentLimit = 10

// ActiveWindow is how far back an approved entry counts as activity.
const ActiveWindow = 24 * time.Hour
