// Package service implements the time-accounting operations: punching and
// editing entries, statistics, the admin dashboard and clear/undo.
package service

import (
	"context"
	"time"

	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/pkg/actor"
	"github.com/punchclock/punchclock-backend/pkg/clock"
)

// EntryStore persists time entries.
type EntryStore interface {
	Insert(ctx context.Context, e *domain.TimeEntry) error
	GetByID(ctx context.Context, id string) (*domain.TimeEntry, error)
	Update(ctx context.Context, e *domain.TimeEntry) error
	UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.TimeEntry, error)
	Delete(ctx context.Context, id string) (*domain.TimeEntry, error)
	ListForEmployee(ctx context.Context, employeeID string, from, to clock.Date, verifiedOnly bool) ([]domain.TimeEntry, error)
	ListViewsForAdmin(ctx context.Context, adminUserID string, date clock.Date) ([]domain.EntryView, error)
	ListViewsForEmployee(ctx context.Context, employeeID string, date clock.Date) ([]domain.EntryView, error)
	ListRecent(ctx context.Context, employeeID string, since clock.Date, limit int) ([]domain.TimeEntry, error)
	ApprovePending(ctx context.Context, adminUserID string, date clock.Date) (int, error)
	DeleteForDate(ctx context.Context, f domain.ClearFilter, beforeCommit func([]domain.TimeEntry) error) ([]domain.TimeEntry, error)
	DashboardCounts(ctx context.Context, adminUserID string, date clock.Date) (*domain.DashboardCounts, error)
	ListActiveEmployees(ctx context.Context, adminUserID string, since time.Time) ([]domain.ActiveEmployee, error)
}

// EmployeeStore persists employees and departments.
type EmployeeStore interface {
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Employee, error)
	CreateIfAbsent(ctx context.Context, emp *domain.Employee) (*domain.Employee, error)
	ListByAdmin(ctx context.Context, adminUserID string) ([]domain.Employee, error)
	GetOrCreateDepartment(ctx context.Context, name string) (*domain.Department, error)
}

// UserStore is the local cache of accounts from the identity service.
type UserStore interface {
	Upsert(ctx context.Context, user *actor.CachedUser) error
	Get(ctx context.Context, userID string) (*actor.CachedUser, error)
	Delete(ctx context.Context, userID string) error
	FirstAdmin(ctx context.Context) (*actor.CachedUser, error)
}

// PunchTokens issues and checks the session tokens sent with a punch.
type PunchTokens interface {
	Issue(a *actor.Actor) (string, time.Time, error)
	Verify(token string, a *actor.Actor) bool
	Mode() string
}
