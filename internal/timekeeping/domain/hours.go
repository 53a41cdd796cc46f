package domain

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"

	"github.com/punchclock/punchclock-backend/pkg/clock"
)

// Hours is a duration in hundredths of an hour. Keeping it integral makes
// sums and comparisons exact; it is rendered with two decimals.
type Hours int64

// HoursFromFloat rounds f to the nearest hundredth, half away from zero.
func HoursFromFloat(f float64) Hours {
	return Hours(math.Round(f * 100))
}

// Float64 returns the value in hours.
func (h Hours) Float64() float64 {
	return float64(h) / 100
}

func (h Hours) String() string {
	sign := ""
	v := int64(h)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON writes the value as a JSON number with two decimals.
func (h Hours) MarshalJSON() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalJSON accepts a JSON number or numeric string.
func (h *Hours) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid hours %q: %w", s, err)
	}
	*h = HoursFromFloat(f)
	return nil
}

// Scan implements sql.Scanner for NUMERIC columns.
func (h *Hours) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*h = 0
		return nil
	case []byte:
		return h.scanString(string(v))
	case string:
		return h.scanString(v)
	case float64:
		*h = HoursFromFloat(v)
		return nil
	case int64:
		*h = Hours(v * 100)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into domain.Hours", src)
	}
}

func (h *Hours) scanString(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid hours %q: %w", s, err)
	}
	*h = HoursFromFloat(f)
	return nil
}

// Value implements driver.Valuer
func (h Hours) Value() (driver.Value, error) {
	return h.String(), nil
}

// ComputeHours returns the elapsed time from start to end.
//
// An open segment (nil end) counts as zero. An end earlier than the start
// falls on the next day. An end equal to the start is zero, not 24 hours.
// Seconds are converted with half-up rounding to the hundredth.
func ComputeHours(start clock.TimeOfDay, end *clock.TimeOfDay) Hours {
	if end == nil {
		return 0
	}
	secs := end.Seconds() - start.Seconds()
	if secs < 0 {
		secs += clock.SecondsPerDay
	}
	return Hours((secs*100 + 1800) / 3600)
}
