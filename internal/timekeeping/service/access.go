package service

import (
	"context"

	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/pkg/actor"
	"github.com/punchclock/punchclock-backend/pkg/errors"
)

// currentActor returns the authenticated caller.
func currentActor(ctx context.Context) (*actor.Actor, error) {
	a := actor.FromContext(ctx)
	if a == nil || a.ID == "" {
		return nil, errors.Unauthorized("authentication required")
	}
	return a, nil
}

// requireAdmin returns the caller if they hold an admin role.
func requireAdmin(ctx context.Context) (*actor.Actor, error) {
	a, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}
	if !a.IsAdmin {
		return nil, errors.AdminRequired()
	}
	return a, nil
}

// canAccess reports whether a may act on emp's entries: a is emp's admin
// or emp is a's own record.
func canAccess(a *actor.Actor, emp *domain.Employee) bool {
	return emp.ManagedBy(a.ID) || emp.UserID == a.ID
}

// loadManaged loads an employee that the admin a manages.
func loadManaged(ctx context.Context, employees EmployeeStore, a *actor.Actor, employeeID string) (*domain.Employee, error) {
	emp, err := employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !emp.ManagedBy(a.ID) {
		return nil, errors.Forbidden("employee is not managed by you")
	}
	return emp, nil
}
