package service

import (
	"context"

	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/punchclock/punchclock-backend/pkg/logger"
)

// DashboardService serves the admin dashboard figures
type DashboardService struct {
	entries EntryStore
	clock   clock.Clock
	logger  *logger.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(entries EntryStore, clk clock.Clock, log *logger.Logger) *DashboardService {
	return &DashboardService{entries: entries, clock: clk, logger: log}
}

// DashboardStats summarises today for one admin's employees.
type DashboardStats struct {
	Date             clock.Date   `json:"date"`
	TotalEmployees   int          `json:"total_employees"`
	ActiveToday      int          `json:"active_today"`
	PendingApprovals int          `json:"pending_approvals"`
	AverageHours     domain.Hours `json:"average_hours"`
}

// ActiveEmployees lists employees with recently approved time.
type ActiveEmployees struct {
	Count     int                     `json:"count"`
	Employees []domain.ActiveEmployee `json:"employees"`
}

// Stats returns today's dashboard figures. AverageHours is the mean hours
// per entry today, to one decimal.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	a, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	counts, err := s.entries.DashboardCounts(ctx, a.ID, today)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		Date:             today,
		TotalEmployees:   counts.TotalEmployees,
		ActiveToday:      counts.ActiveToday,
		PendingApprovals: counts.PendingToday,
		AverageHours:     domain.AverageTenths(counts.HoursToday, counts.EntriesToday),
	}, nil
}

// ActiveEmployees lists managed employees with an entry approved within
// the active window.
func (s *DashboardService) ActiveEmployees(ctx context.Context) (*ActiveEmployees, error) {
	a, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	since := s.clock.Now().Add(-domain.ActiveWindow)
	active, err := s.entries.ListActiveEmployees(ctx, a.ID, since)
	if err != nil {
		return nil, err
	}

	return &ActiveEmployees{Count: len(active), Employees: active}, nil
}
