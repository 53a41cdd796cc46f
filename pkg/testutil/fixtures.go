package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/pkg/actor"
	"github.com/punchclock/punchclock-backend/pkg/clock"
)

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	mu       sync.Mutex
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

func (f *FixtureFactory) nextSeq() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sequence++
	return f.sequence
}

// Actor creates an authenticated caller in tenantID.
func (f *FixtureFactory) Actor(tenantID string, opts ...func(*actor.Actor)) *actor.Actor {
	seq := f.nextSeq()
	a := &actor.Actor{
		ID:        uuid.New().String(),
		Name:      fmt.Sprintf("User %d", seq),
		Email:     fmt.Sprintf("user%d@example.com", seq),
		TenantID:  tenantID,
		Role:      "employee",
		SessionID: uuid.New().String(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AsAdmin makes the actor an admin.
func AsAdmin() func(*actor.Actor) {
	return func(a *actor.Actor) {
		a.Role = "admin"
		a.IsAdmin = true
	}
}

// WithActorName sets the actor's display name.
func WithActorName(name string) func(*actor.Actor) {
	return func(a *actor.Actor) {
		a.Name = name
	}
}

// WithSessionExpiry sets when the actor's session ends.
func WithSessionExpiry(t time.Time) func(*actor.Actor) {
	return func(a *actor.Actor) {
		a.ExpiresAt = t
	}
}

// Employee creates an employee record for a user managed by adminUserID.
func (f *FixtureFactory) Employee(userID, adminUserID string, opts ...func(*domain.Employee)) *domain.Employee {
	seq := f.nextSeq()
	e := &domain.Employee{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        fmt.Sprintf("Employee %d", seq),
		AdminUserID: adminUserID,
		HireDate:    clock.NewDate(2023, time.January, 2),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithEmployeeName sets the employee's display name.
func WithEmployeeName(name string) func(*domain.Employee) {
	return func(e *domain.Employee) {
		e.Name = name
	}
}

// Entry creates a pending, verified entry. end may be empty for an open segment.
func (f *FixtureFactory) Entry(employeeID string, date clock.Date, start, end string, opts ...func(*domain.TimeEntry)) *domain.TimeEntry {
	e := &domain.TimeEntry{
		EmployeeID:      employeeID,
		Date:            date,
		StartTime:       clock.MustTimeOfDay(start),
		EntryType:       domain.EntryTypeRegular,
		Status:          domain.StatusPending,
		SessionID:       "fixture-session",
		SessionVerified: true,
	}
	if end != "" {
		t := clock.MustTimeOfDay(end)
		e.EndTime = &t
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Recompute()
	return e
}

// WithStatus sets the entry status.
func WithStatus(s domain.Status) func(*domain.TimeEntry) {
	return func(e *domain.TimeEntry) {
		e.Status = s
	}
}

// Unverified clears the session verification flag.
func Unverified() func(*domain.TimeEntry) {
	return func(e *domain.TimeEntry) {
		e.SessionVerified = false
	}
}

// WithSegment sets an explicit segment index.
func WithSegment(n int) func(*domain.TimeEntry) {
	return func(e *domain.TimeEntry) {
		e.SegmentIndex = n
	}
}
