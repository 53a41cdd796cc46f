package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/punchclock/punchclock-backend/pkg/database"
)

const resourceTimeEntry = "time_entry"

var entryColumns = []string{
	"id", "tenant_id", "employee_id", "entry_date", "start_time", "end_time",
	"total_hours", "entry_type", "status", "session_id", "session_verified",
	"segment_index", "created_at", "updated_at",
}

// LockSegmentsQuery serialises segment assignment for one employee and day.
const LockSegmentsQuery = "SELECT pg_advisory_xact_lock(hashtext($1))"

// EntryRepository handles time entry persistence
type EntryRepository struct {
	db *database.DB
}

// NewEntryRepository creates a new time entry repository
func NewEntryRepository(db *database.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// Insert stores e and fills in its id, tenant, timestamps and, when
// e.SegmentIndex is zero, the next free segment index for the day.
//
// The advisory lock makes concurrent punches for the same employee and day
// take turns computing MAX+1; an explicit index that is already taken fails
// on the unique constraint and surfaces as a conflict.
func (r *EntryRepository) Insert(ctx context.Context, e *domain.TimeEntry) error {
	var segment interface{}
	if e.SegmentIndex > 0 {
		segment = e.SegmentIndex
	}

	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, LockSegmentsQuery, segmentLockKey(e.EmployeeID, e.Date)); err != nil {
			return err
		}

		query := `
			INSERT INTO time_entries (
				employee_id, entry_date, start_time, end_time, total_hours,
				entry_type, status, session_id, session_verified, segment_index
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9,
				COALESCE($10::int, (
					SELECT COALESCE(MAX(segment_index), 0) + 1
					FROM time_entries WHERE employee_id = $1 AND entry_date = $2
				))
			)
			RETURNING id, tenant_id, segment_index, created_at, updated_at
		`
		return tx.QueryRowxContext(ctx, query,
			e.EmployeeID, e.Date, e.StartTime, e.EndTime, e.TotalHours,
			e.EntryType, e.Status, e.SessionID, e.SessionVerified, segment,
		).Scan(&e.ID, &e.TenantID, &e.SegmentIndex, &e.CreatedAt, &e.UpdatedAt)
	})
	return mapErr(err, resourceTimeEntry)
}

func segmentLockKey(employeeID string, date clock.Date) string {
	return employeeID + ":" + date.String()
}

// GetByID gets a time entry by ID
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.TimeEntry, error) {
	var entry domain.TimeEntry
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		query := `SELECT ` + columns(entryColumns, "") + ` FROM time_entries WHERE id = $1`
		return tx.GetContext(ctx, &entry, query, id)
	})
	if err != nil {
		return nil, mapErr(err, resourceTimeEntry)
	}
	return &entry, nil
}

// Update writes every mutable field of e, including the recomputed hours.
func (r *EntryRepository) Update(ctx context.Context, e *domain.TimeEntry) error {
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE time_entries SET
				entry_date = $2, start_time = $3, end_time = $4, total_hours = $5,
				entry_type = $6, status = $7, segment_index = $8, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at
		`
		return tx.QueryRowxContext(ctx, query,
			e.ID, e.Date, e.StartTime, e.EndTime, e.TotalHours,
			e.EntryType, e.Status, e.SegmentIndex,
		).Scan(&e.UpdatedAt)
	})
	return mapErr(err, resourceTimeEntry)
}

// UpdateStatus sets the status of one entry and returns the stored row.
func (r *EntryRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.TimeEntry, error) {
	var entry domain.TimeEntry
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE time_entries SET status = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING ` + columns(entryColumns, "")
		return tx.GetContext(ctx, &entry, query, id, status)
	})
	if err != nil {
		return nil, mapErr(err, resourceTimeEntry)
	}
	return &entry, nil
}

// Delete removes one entry and returns it.
func (r *EntryRepository) Delete(ctx context.Context, id string) (*domain.TimeEntry, error) {
	var entry domain.TimeEntry
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		query := `DELETE FROM time_entries WHERE id = $1 RETURNING ` + columns(entryColumns, "")
		return tx.GetContext(ctx, &entry, query, id)
	})
	if err != nil {
		return nil, mapErr(err, resourceTimeEntry)
	}
	return &entry, nil
}

// ListForEmployee lists one employee's entries dated within [from, to].
func (r *EntryRepository) ListForEmployee(ctx context.Context, employeeID string, from, to clock.Date, verifiedOnly bool) ([]domain.TimeEntry, error) {
	entries := []domain.TimeEntry{}
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		query := `
			SELECT ` + columns(entryColumns, "") + `
			FROM time_entries
			WHERE employee_id = $1 AND entry_date BETWEEN $2 AND $3
		`
		if verifiedOnly {
			query += ` AND session_verified`
		}
		query += ` ORDER BY entry_date, segment_index`
		return tx.SelectContext(ctx, &entries, query, employeeID, from, to)
	})
	if err != nil {
		return nil, mapErr(err, resourceTimeEntry)
	}
	return entries, nil
}

const viewSelect = `
	SELECT %s, e.name AS employee_name, COALESCE(d.name, 'N/A') AS department_name
	FROM time_entries t
	JOIN employees e ON e.id = t.employee_id
	LEFT JOIN departments d ON d.id = e.department_id
`

// ListViewsForAdmin lists the entries on date of every employee managed by
// adminUserID plus the admin's own.
func (r *EntryRepository) ListViewsForAdmin(ctx context.Context, adminUserID string, date clock.Date) ([]domain.EntryView, error) {
	views := []domain.EntryView{}
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		query := fmt.Sprintf(viewSelect, columns(entryColumns, "t")) + `
			WHERE t.entry_date = $1 AND (e.admin_user_id = $2 OR e.user_id = $2)
			ORDER BY e.name, t.segment_index
		`
		return tx.SelectContext(ctx, &views, query, date, adminUserID)
	})
	if err != nil {
		return nil, mapErr(err, resourceTimeEntry)
	}
	return views, nil
}

// ListViewsForEmployee lists one employee's entries on date.
func (r *EntryRepository) ListViewsForEmployee(ctx context.Context, employeeID string, date clock.Date) ([]domain.EntryView, error) {
	views := []domain.EntryView{}
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		query := fmt.Sprintf(viewSelect, columns(entryColumns, "t")) + `
			WHERE t.entry_date = $1 AND t.employee_id = $2
			ORDER BY t.segment_index
		`
		return tx.SelectContext(ctx, &views, query, date, employeeID)
	})
	if err != nil {
		return nil, mapErr(err, resourceTimeEntry)
	}
	return views, nil
}

// ListRecent lists an employee's entries dated on or after since, newest first.
func (r *EntryRepository) ListRecent(ctx context.Context, employeeID string, since clock.Date, limit int) ([]domain.TimeEntry, error) {
	entries := []domain.TimeEntry{}
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		query := `
			SELECT ` + columns(entryColumns, "") + `
			FROM time_entries
			WHERE employee_id = $1 AND entry_date >= $2
			ORDER BY created_at DESC
			LIMIT $3
		`
		return tx.SelectContext(ctx, &entries, query, employeeID, since, limit)
	})
	if err != nil {
		return nil, mapErr(err, resourceTimeEntry)
	}
	return entries, nil
}

// ApprovePending approves every pending entry on date belonging to an
// employee managed by adminUserID, in one statement.
func (r *EntryRepository) ApprovePending(ctx context.Context, adminUserID string, date clock.Date) (int, error) {
	var affected int64
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE time_entries t SET status = 'approved', updated_at = NOW()
			FROM employees e
			WHERE t.employee_id = e.id
			  AND e.admin_user_id = $1
			  AND t.entry_date = $2
			  AND t.status = 'pending'
		`
		result, err := tx.ExecContext(ctx, query, adminUserID, date)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, mapErr(err, resourceTimeEntry)
	}
	return int(affected), nil
}

// DeleteForDate deletes the entries matched by f and returns them.
//
// beforeCommit receives the deleted rows inside the transaction; if it
// fails the delete is rolled back. This is how a clear guarantees its
// recovery snapshot exists before any row is gone.
func (r *EntryRepository) DeleteForDate(ctx context.Context, f domain.ClearFilter, beforeCommit func([]domain.TimeEntry) error) ([]domain.TimeEntry, error) {
	deleted := []domain.TimeEntry{}
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		query := `
			DELETE FROM time_entries t
			USING employees e
			WHERE t.employee_id = e.id
			  AND e.admin_user_id = $1
			  AND t.entry_date = $2
		`
		args := []interface{}{f.AdminUserID, f.Date}
		if f.EmployeeID != "" {
			query += ` AND t.employee_id = $3`
			args = append(args, f.EmployeeID)
		}
		query += ` RETURNING ` + columns(entryColumns, "t")

		if err := tx.SelectContext(ctx, &deleted, query, args...); err != nil {
			return err
		}
		if beforeCommit != nil {
			return beforeCommit(deleted)
		}
		return nil
	})
	if err != nil {
		return nil, mapErr(err, resourceTimeEntry)
	}
	return deleted, nil
}

// DashboardCounts gathers the admin dashboard figures for date.
func (r *EntryRepository) DashboardCounts(ctx context.Context, adminUserID string, date clock.Date) (*domain.DashboardCounts, error) {
	var counts domain.DashboardCounts
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		query := `
			SELECT
				(SELECT COUNT(*) FROM employees WHERE admin_user_id = $1) AS total_employees,
				COUNT(DISTINCT t.employee_id) AS active_today,
				COUNT(*) FILTER (WHERE t.status = 'pending') AS pending_today,
				COUNT(t.id) AS entries_today,
				COALESCE(SUM(t.total_hours), 0) AS hours_today
			FROM time_entries t
			JOIN employees e ON e.id = t.employee_id
			WHERE e.admin_user_id = $1 AND t.entry_date = $2
		`
		return tx.GetContext(ctx, &counts, query, adminUserID, date)
	})
	if err != nil {
		return nil, mapErr(err, resourceTimeEntry)
	}
	return &counts, nil
}

// ListActiveEmployees lists managed employees with an approved entry
// updated at or after since.
func (r *EntryRepository) ListActiveEmployees(ctx context.Context, adminUserID string, since time.Time) ([]domain.ActiveEmployee, error) {
	active := []domain.ActiveEmployee{}
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		query := `
			SELECT e.id AS employee_id, e.name, COALESCE(d.name, 'N/A') AS department_name,
			       MAX(t.updated_at) AS last_activity
			FROM employees e
			JOIN time_entries t ON t.employee_id = e.id
			LEFT JOIN departments d ON d.id = e.department_id
			WHERE e.admin_user_id = $1
			  AND t.status = 'approved'
			  AND t.updated_at >= $2
			GROUP BY e.id, e.name, d.name
			ORDER BY last_activity DESC
		`
		return tx.SelectContext(ctx, &active, query, adminUserID, since)
	})
	if err != nil {
		return nil, mapErr(err, resourceTimeEntry)
	}
	return active, nil
}
