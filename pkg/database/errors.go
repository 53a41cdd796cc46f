package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/punchclock/punchclock-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	// Invalid text representation (22P02), e.g. a malformed uuid
	case "22P02":
		return errors.BadRequest("malformed identifier")

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: pending, approved, rejected",
		})

	case strings.Contains(constraint, "entry_type_valid"):
		return errors.Validation(map[string]string{
			"entry_type": "must be one of: Regular Work Hours, Overtime, Meeting, Training, Other",
		})

	case strings.Contains(constraint, "segment_positive"):
		return errors.Validation(map[string]string{
			"segment_index": "must be at least 1",
		})

	case strings.Contains(constraint, "hours_range"):
		return errors.Validation(map[string]string{
			"total_hours": "must be between 0 and 24",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "segment"):
		return "segment index already in use for this day"
	case strings.Contains(constraint, "employees_user"):
		return "an employee record for this user already exists"
	case strings.Contains(constraint, "departments_name"):
		return "a department with this name already exists"
	default:
		return "a record with these values already exists"
	}
}
