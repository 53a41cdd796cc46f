package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/pkg/database"
)

const resourceEmployee = "employee"

var employeeColumns = []string{
	"id", "tenant_id", "user_id", "name", "admin_user_id", "department_id",
	"hire_date", "created_at", "updated_at",
}

// EmployeeRepository handles employee and department persistence
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// GetByID gets an employee by ID
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	var emp domain.Employee
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		query := `SELECT ` + columns(employeeColumns, "") + ` FROM employees WHERE id = $1`
		return tx.GetContext(ctx, &emp, query, id)
	})
	if err != nil {
		return nil, mapErr(err, resourceEmployee)
	}
	return &emp, nil
}

// GetByUserID gets the employee linked to an account
func (r *EmployeeRepository) GetByUserID(ctx context.Context, userID string) (*domain.Employee, error) {
	var emp domain.Employee
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		query := `SELECT ` + columns(employeeColumns, "") + ` FROM employees WHERE user_id = $1`
		return tx.GetContext(ctx, &emp, query, userID)
	})
	if err != nil {
		return nil, mapErr(err, resourceEmployee)
	}
	return &emp, nil
}

// CreateIfAbsent inserts emp unless the account already has an employee
// record, and returns whichever record is stored. Safe to race.
func (r *EmployeeRepository) CreateIfAbsent(ctx context.Context, emp *domain.Employee) (*domain.Employee, error) {
	var stored domain.Employee
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		insert := `
			INSERT INTO employees (user_id, name, admin_user_id, department_id, hire_date)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (tenant_id, user_id) DO NOTHING
		`
		if _, err := tx.ExecContext(ctx, insert,
			emp.UserID, emp.Name, emp.AdminUserID, emp.DepartmentID, emp.HireDate,
		); err != nil {
			return err
		}

		query := `SELECT ` + columns(employeeColumns, "") + ` FROM employees WHERE user_id = $1`
		return tx.GetContext(ctx, &stored, query, emp.UserID)
	})
	if err != nil {
		return nil, mapErr(err, resourceEmployee)
	}
	return &stored, nil
}

// ListByAdmin lists the employees managed by adminUserID, by name.
func (r *EmployeeRepository) ListByAdmin(ctx context.Context, adminUserID string) ([]domain.Employee, error) {
	employees := []domain.Employee{}
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		query := `SELECT ` + columns(employeeColumns, "") + `
			FROM employees WHERE admin_user_id = $1 ORDER BY name`
		return tx.SelectContext(ctx, &employees, query, adminUserID)
	})
	if err != nil {
		return nil, mapErr(err, resourceEmployee)
	}
	return employees, nil
}

// GetOrCreateDepartment returns the department called name, creating it
// on first use.
func (r *EmployeeRepository) GetOrCreateDepartment(ctx context.Context, name string) (*domain.Department, error) {
	var dept domain.Department
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		// DO UPDATE so RETURNING yields the row on conflict as well.
		query := `
			INSERT INTO departments (name) VALUES ($1)
			ON CONFLICT (tenant_id, name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id, tenant_id, name, created_at
		`
		return tx.GetContext(ctx, &dept, query, name)
	})
	if err != nil {
		return nil, mapErr(err, "department")
	}
	return &dept, nil
}
