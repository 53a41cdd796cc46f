// Package clock supplies "now" and "today" to the time-accounting code and
// the calendar value types stored with every time entry.
package clock

import (
	"fmt"
	"sync"
	"time"
)

// Clock is the system time source. Today is the calendar date of Now in
// the clock's configured location.
type Clock interface {
	Now() time.Time
	Today() Date
}

// System reads the wall clock in a fixed location.
type System struct {
	loc *time.Location
}

// New returns the wall clock for loc. A nil loc means UTC.
func New(loc *time.Location) *System {
	if loc == nil {
		loc = time.UTC
	}
	return &System{loc: loc}
}

// NewInZone loads an IANA zone name ("Europe/Berlin") and returns its clock.
func NewInZone(name string) (*System, error) {
	if name == "" {
		return New(time.UTC), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return New(loc), nil
}

func (c *System) Now() time.Time { return time.Now().In(c.loc) }

func (c *System) Today() Date { return DateOf(c.Now()) }

// Location returns the zone used for Today.
func (c *System) Location() *time.Location { return c.loc }

// Fixed is a settable clock for tests.
type Fixed struct {
	mu  sync.RWMutex
	now time.Time
}

// NewFixed returns a clock frozen at t. Today uses t's own location.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t}
}

func (c *Fixed) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *Fixed) Today() Date { return DateOf(c.Now()) }

// Set moves the clock to t.
func (c *Fixed) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *Fixed) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
