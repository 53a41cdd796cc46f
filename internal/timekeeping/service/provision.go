package service

import (
	"context"

	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/pkg/actor"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/punchclock/punchclock-backend/pkg/errors"
	"github.com/punchclock/punchclock-backend/pkg/logger"
)

// EmployeeResolver maps accounts to employee records, creating them on
// first use.
type EmployeeResolver struct {
	employees EmployeeStore
	users     UserStore
	clock     clock.Clock
	logger    *logger.Logger
}

// NewEmployeeResolver creates a new employee resolver
func NewEmployeeResolver(employees EmployeeStore, users UserStore, clk clock.Clock, log *logger.Logger) *EmployeeResolver {
	return &EmployeeResolver{
		employees: employees,
		users:     users,
		clock:     clk,
		logger:    log,
	}
}

// ResolveOrProvision returns the employee record of a, creating it if the
// account has none.
//
// Admins become their own admin in the Management department. Other
// accounts are assigned to the tenant's earliest admin, or to themselves
// when the tenant has no admin yet. Concurrent calls for one account
// converge on a single record.
func (r *EmployeeResolver) ResolveOrProvision(ctx context.Context, a *actor.Actor) (*domain.Employee, error) {
	emp, err := r.employees.GetByUserID(ctx, a.ID)
	if err == nil {
		return emp, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	if err := r.users.Upsert(ctx, actor.FromActor(a)); err != nil {
		return nil, err
	}

	candidate := &domain.Employee{
		UserID:   a.ID,
		Name:     a.DisplayName(),
		HireDate: r.clock.Today(),
	}

	if a.IsAdmin {
		dept, err := r.employees.GetOrCreateDepartment(ctx, domain.ManagementDepartment)
		if err != nil {
			return nil, err
		}
		candidate.AdminUserID = a.ID
		candidate.DepartmentID = &dept.ID
	} else {
		admin, err := r.users.FirstAdmin(ctx)
		switch {
		case err == nil:
			candidate.AdminUserID = admin.UserID
		case errors.IsNotFound(err):
			candidate.AdminUserID = a.ID
		default:
			return nil, err
		}
	}

	emp, err = r.employees.CreateIfAbsent(ctx, candidate)
	if err != nil {
		return nil, err
	}

	r.logger.Info().
		Str("employee_id", emp.ID).
		Str("user_id", emp.UserID).
		Str("admin_user_id", emp.AdminUserID).
		Msg("employee provisioned")

	return emp, nil
}
