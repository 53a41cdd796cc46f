package domain

import (
	"time"

	"github.com/punchclock/punchclock-backend/pkg/clock"
)

// Status represents the review state of a time entry
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// EntryType classifies the work recorded by an entry
type EntryType string

const (
	EntryTypeRegular  EntryType = "Regular Work Hours"
	EntryTypeOvertime EntryType = "Overtime"
	EntryTypeMeeting  EntryType = "Meeting"
	EntryTypeTraining EntryType = "Training"
	EntryTypeOther    EntryType = "Other"
)

// EntryTypes lists every entry type in display order.
var EntryTypes = []EntryType{
	EntryTypeRegular, EntryTypeOvertime, EntryTypeMeeting, EntryTypeTraining, EntryTypeOther,
}

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	for _, known := range EntryTypes {
		if t == known {
			return true
		}
	}
	return false
}

// TimeEntry is one worked segment of one employee on one day.
type TimeEntry struct {
	ID              string           `json:"id" db:"id"`
	TenantID        string           `json:"-" db:"tenant_id"`
	EmployeeID      string           `json:"employee_id" db:"employee_id"`
	Date            clock.Date       `json:"date" db:"entry_date"`
	StartTime       clock.TimeOfDay  `json:"start_time" db:"start_time"`
	EndTime         *clock.TimeOfDay `json:"end_time" db:"end_time"`
	TotalHours      Hours            `json:"total_hours" db:"total_hours"`
	EntryType       EntryType        `json:"entry_type" db:"entry_type"`
	Status          Status           `json:"status" db:"status"`
	SessionID       string           `json:"-" db:"session_id"`
	SessionVerified bool             `json:"session_verified" db:"session_verified"`
	SegmentIndex    int              `json:"segment_index" db:"segment_index"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

// IsOpen reports whether the segment has no end time yet.
func (e *TimeEntry) IsOpen() bool {
	return e.EndTime == nil
}

// Recompute derives TotalHours from the start and end times. Every write
// path calls it before persisting.
func (e *TimeEntry) Recompute() {
	e.TotalHours = ComputeHours(e.StartTime, e.EndTime)
}

// EntryView is a time entry joined with its employee's display data.
type EntryView struct {
	TimeEntry
	EmployeeName   string `json:"employee_name" db:"employee_name"`
	DepartmentName string `json:"department_name" db:"department_name"`
}

// Employee is a tracked worker, linked one-to-one with an account.
type Employee struct {
	ID           string     `json:"id" db:"id"`
	TenantID     string     `json:"-" db:"tenant_id"`
	UserID       string     `json:"user_id" db:"user_id"`
	Name         string     `json:"name" db:"name"`
	AdminUserID  string     `json:"admin_user_id" db:"admin_user_id"`
	DepartmentID *string    `json:"department_id,omitempty" db:"department_id"`
	HireDate     clock.Date `json:"hire_date" db:"hire_date"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// ManagedBy reports whether the admin with userID manages e.
func (e *Employee) ManagedBy(userID string) bool {
	return e != nil && e.AdminUserID == userID
}

// SelfManaged reports whether e is its own admin.
func (e *Employee) SelfManaged() bool {
	return e != nil && e.AdminUserID == e.UserID
}

// Department groups employees for display.
type Department struct {
	ID        string    `json:"id" db:"id"`
	TenantID  string    `json:"-" db:"tenant_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ManagementDepartment holds self-managed admin employees.
const ManagementDepartment = "Management"

// ActiveEmployee is a dashboard row for someone with recently approved time.
type ActiveEmployee struct {
	EmployeeID     string    `json:"employee_id" db:"employee_id"`
	Name           string    `json:"name" db:"name"`
	DepartmentName string    `json:"department_name" db:"department_name"`
	LastActivity   time.Time `json:"last_activity" db:"last_activity"`
}

// ClearFilter selects the entries removed by a clear. An empty EmployeeID
// means every employee managed by the admin.
type ClearFilter struct {
	AdminUserID string
	EmployeeID  string
	Date        clock.Date
}

// DashboardCounts are the raw figures behind the admin dashboard.
type DashboardCounts struct {
	TotalEmployees int   `db:"total_employees"`
	ActiveToday    int   `db:"active_today"`
	PendingToday   int   `db:"pending_today"`
	EntriesToday   int   `db:"entries_today"`
	HoursToday     Hours `db:"hours_today"`
}
