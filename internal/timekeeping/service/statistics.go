package service

import (
	"context"

	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/punchclock/punchclock-backend/pkg/errors"
	"github.com/punchclock/punchclock-backend/pkg/logger"
)

// StatisticsService computes weekly hours and daily averages. Nothing is
// cached; every call reads the entries it needs.
type StatisticsService struct {
	entries   EntryStore
	employees EmployeeStore
	resolver  *EmployeeResolver
	config    domain.AverageConfig
	clock     clock.Clock
	logger    *logger.Logger
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(
	entries EntryStore,
	employees EmployeeStore,
	resolver *EmployeeResolver,
	cfg domain.AverageConfig,
	clk clock.Clock,
	log *logger.Logger,
) *StatisticsService {
	return &StatisticsService{
		entries:   entries,
		employees: employees,
		resolver:  resolver,
		config:    cfg,
		clock:     clk,
		logger:    log,
	}
}

// EmployeeStatistics is the statistics of one employee.
type EmployeeStatistics struct {
	EmployeeID string `json:"employee_id"`
	domain.Statistics
}

// GetStatistics computes the statistics of the caller, or of employeeID
// when given. asOf defaults to today.
func (s *StatisticsService) GetStatistics(ctx context.Context, employeeID string, asOf *clock.Date) (*EmployeeStatistics, error) {
	a, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}

	var emp *domain.Employee
	if employeeID == "" {
		emp, err = s.resolver.ResolveOrProvision(ctx, a)
	} else {
		emp, err = s.employees.GetByID(ctx, employeeID)
		if err == nil && !canAccess(a, emp) {
			err = errors.Forbidden("you may only view your own or your employees' statistics")
		}
	}
	if err != nil {
		return nil, err
	}

	day := s.clock.Today()
	if asOf != nil {
		day = *asOf
	}

	from, to := domain.StatisticsRange(day, s.config)
	entries, err := s.entries.ListForEmployee(ctx, emp.ID, from, to, true)
	if err != nil {
		return nil, err
	}

	return &EmployeeStatistics{
		EmployeeID: emp.ID,
		Statistics: domain.ComputeStatistics(entries, day, s.config),
	}, nil
}
