package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/pkg/actor"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/punchclock/punchclock-backend/pkg/errors"
)

// memEmployees is an in-memory EmployeeStore.
type memEmployees struct {
	mu          sync.Mutex
	byID        map[string]*domain.Employee
	departments map[string]*domain.Department
}

func newMemEmployees() *memEmployees {
	return &memEmployees{
		byID:        make(map[string]*domain.Employee),
		departments: make(map[string]*domain.Department),
	}
}

func (m *memEmployees) add(e *domain.Employee) *domain.Employee {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	cp := *e
	m.byID[e.ID] = &cp
	return e
}

func (m *memEmployees) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[id]
	if !ok {
		return nil, errors.NotFound("employee")
	}
	cp := *e
	return &cp, nil
}

func (m *memEmployees) GetByUserID(_ context.Context, userID string) (*domain.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byID {
		if e.UserID == userID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, errors.NotFound("employee")
}

func (m *memEmployees) CreateIfAbsent(ctx context.Context, emp *domain.Employee) (*domain.Employee, error) {
	if existing, err := m.GetByUserID(ctx, emp.UserID); err == nil {
		return existing, nil
	}
	cp := *emp
	return m.add(&cp), nil
}

func (m *memEmployees) ListByAdmin(_ context.Context, adminUserID string) ([]domain.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Employee{}
	for _, e := range m.byID {
		if e.AdminUserID == adminUserID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memEmployees) GetOrCreateDepartment(_ context.Context, name string) (*domain.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.departments[name]; ok {
		return d, nil
	}
	d := &domain.Department{ID: uuid.NewString(), Name: name}
	m.departments[name] = d
	return d, nil
}

func (m *memEmployees) reassign(id, adminUserID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].AdminUserID = adminUserID
}

func (m *memEmployees) department(id *string) string {
	if id == nil {
		return "N/A"
	}
	for _, d := range m.departments {
		if d.ID == *id {
			return d.Name
		}
	}
	return "N/A"
}

// memUsers is an in-memory UserStore.
type memUsers struct {
	mu    sync.Mutex
	users map[string]*actor.CachedUser
	now   func() time.Time
}

func newMemUsers(clk clock.Clock) *memUsers {
	return &memUsers{users: make(map[string]*actor.CachedUser), now: clk.Now}
}

func (m *memUsers) Upsert(_ context.Context, u *actor.CachedUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	if existing, ok := m.users[u.UserID]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else {
		cp.CreatedAt = m.now()
	}
	cp.UpdatedAt = m.now()
	m.users[u.UserID] = &cp
	return nil
}

func (m *memUsers) Get(_ context.Context, userID string) (*actor.CachedUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, errors.NotFound("user")
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
	return nil
}

func (m *memUsers) FirstAdmin(_ context.Context) (*actor.CachedUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var first *actor.CachedUser
	for _, u := range m.users {
		if !u.IsAdmin {
			continue
		}
		if first == nil || u.CreatedAt.Before(first.CreatedAt) ||
			(u.CreatedAt.Equal(first.CreatedAt) && u.UserID < first.UserID) {
			first = u
		}
	}
	if first == nil {
		return nil, errors.NotFound("user")
	}
	cp := *first
	return &cp, nil
}

// memEntries is an in-memory EntryStore that enforces the segment
// uniqueness the database enforces.
type memEntries struct {
	mu        sync.Mutex
	entries   map[string]*domain.TimeEntry
	employees *memEmployees
	now       func() time.Time
}

func newMemEntries(employees *memEmployees, clk clock.Clock) *memEntries {
	return &memEntries{entries: make(map[string]*domain.TimeEntry), employees: employees, now: clk.Now}
}

func (m *memEntries) segmentTaken(e *domain.TimeEntry) bool {
	for _, other := range m.entries {
		if other.ID != e.ID && other.EmployeeID == e.EmployeeID &&
			other.Date.Equal(e.Date) && other.SegmentIndex == e.SegmentIndex {
			return true
		}
	}
	return false
}

func (m *memEntries) Insert(_ context.Context, e *domain.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.SegmentIndex == 0 {
		max := 0
		for _, other := range m.entries {
			if other.EmployeeID == e.EmployeeID && other.Date.Equal(e.Date) && other.SegmentIndex > max {
				max = other.SegmentIndex
			}
		}
		e.SegmentIndex = max + 1
	} else if m.segmentTaken(e) {
		return errors.Conflict("segment index already in use for this day")
	}
	e.ID = uuid.NewString()
	e.CreatedAt = m.now()
	e.UpdatedAt = e.CreatedAt
	cp := *e
	m.entries[e.ID] = &cp
	return nil
}

func (m *memEntries) GetByID(_ context.Context, id string) (*domain.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, errors.NotFound("time_entry")
	}
	cp := *e
	return &cp, nil
}

func (m *memEntries) Update(_ context.Context, e *domain.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.ID]; !ok {
		return errors.NotFound("time_entry")
	}
	if m.segmentTaken(e) {
		return errors.Conflict("segment index already in use for this day")
	}
	e.UpdatedAt = m.now()
	cp := *e
	m.entries[e.ID] = &cp
	return nil
}

func (m *memEntries) UpdateStatus(_ context.Context, id string, status domain.Status) (*domain.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, errors.NotFound("time_entry")
	}
	e.Status = status
	e.UpdatedAt = m.now()
	cp := *e
	return &cp, nil
}

func (m *memEntries) Delete(_ context.Context, id string) (*domain.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, errors.NotFound("time_entry")
	}
	delete(m.entries, id)
	return e, nil
}

func (m *memEntries) list(match func(*domain.TimeEntry) bool) []domain.TimeEntry {
	out := []domain.TimeEntry{}
	for _, e := range m.entries {
		if match(e) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].SegmentIndex < out[j].SegmentIndex
	})
	return out
}

func (m *memEntries) ListForEmployee(_ context.Context, employeeID string, from, to clock.Date, verifiedOnly bool) ([]domain.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(e *domain.TimeEntry) bool {
		return e.EmployeeID == employeeID && e.Date.Between(from, to) && (!verifiedOnly || e.SessionVerified)
	}), nil
}

func (m *memEntries) views(entries []domain.TimeEntry) []domain.EntryView {
	views := make([]domain.EntryView, 0, len(entries))
	for _, e := range entries {
		emp := m.employees.byID[e.EmployeeID]
		views = append(views, domain.EntryView{
			TimeEntry:      e,
			EmployeeName:   emp.Name,
			DepartmentName: m.employees.department(emp.DepartmentID),
		})
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].EmployeeName < views[j].EmployeeName })
	return views
}

func (m *memEntries) managedBy(e *domain.TimeEntry, adminUserID string) bool {
	emp, ok := m.employees.byID[e.EmployeeID]
	return ok && emp.AdminUserID == adminUserID
}

func (m *memEntries) ListViewsForAdmin(_ context.Context, adminUserID string, date clock.Date) ([]domain.EntryView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees.mu.Lock()
	defer m.employees.mu.Unlock()
	return m.views(m.list(func(e *domain.TimeEntry) bool {
		emp := m.employees.byID[e.EmployeeID]
		return e.Date.Equal(date) && (emp.AdminUserID == adminUserID || emp.UserID == adminUserID)
	})), nil
}

func (m *memEntries) ListViewsForEmployee(_ context.Context, employeeID string, date clock.Date) ([]domain.EntryView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees.mu.Lock()
	defer m.employees.mu.Unlock()
	return m.views(m.list(func(e *domain.TimeEntry) bool {
		return e.EmployeeID == employeeID && e.Date.Equal(date)
	})), nil
}

func (m *memEntries) ListRecent(_ context.Context, employeeID string, since clock.Date, limit int) ([]domain.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.list(func(e *domain.TimeEntry) bool {
		return e.EmployeeID == employeeID && !e.Date.Before(since)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memEntries) ApprovePending(_ context.Context, adminUserID string, date clock.Date) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees.mu.Lock()
	defer m.employees.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.Date.Equal(date) && e.Status == domain.StatusPending && m.managedBy(e, adminUserID) {
			e.Status = domain.StatusApproved
			e.UpdatedAt = m.now()
			n++
		}
	}
	return n, nil
}

func (m *memEntries) DeleteForDate(_ context.Context, f domain.ClearFilter, beforeCommit func([]domain.TimeEntry) error) ([]domain.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees.mu.Lock()
	defer m.employees.mu.Unlock()
	matched := m.list(func(e *domain.TimeEntry) bool {
		return e.Date.Equal(f.Date) && m.managedBy(e, f.AdminUserID) &&
			(f.EmployeeID == "" || e.EmployeeID == f.EmployeeID)
	})
	if beforeCommit != nil {
		if err := beforeCommit(matched); err != nil {
			return nil, err
		}
	}
	for _, e := range matched {
		delete(m.entries, e.ID)
	}
	return matched, nil
}

func (m *memEntries) DashboardCounts(_ context.Context, adminUserID string, date clock.Date) (*domain.DashboardCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees.mu.Lock()
	defer m.employees.mu.Unlock()
	counts := &domain.DashboardCounts{}
	for _, emp := range m.employees.byID {
		if emp.AdminUserID == adminUserID {
			counts.TotalEmployees++
		}
	}
	active := map[string]bool{}
	for _, e := range m.entries {
		if !e.Date.Equal(date) || !m.managedBy(e, adminUserID) {
			continue
		}
		active[e.EmployeeID] = true
		counts.EntriesToday++
		counts.HoursToday += e.TotalHours
		if e.Status == domain.StatusPending {
			counts.PendingToday++
		}
	}
	counts.ActiveToday = len(active)
	return counts, nil
}

func (m *memEntries) ListActiveEmployees(_ context.Context, adminUserID string, since time.Time) ([]domain.ActiveEmployee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees.mu.Lock()
	defer m.employees.mu.Unlock()
	last := map[string]time.Time{}
	for _, e := range m.entries {
		if e.Status == domain.StatusApproved && !e.UpdatedAt.Before(since) && m.managedBy(e, adminUserID) {
			if e.UpdatedAt.After(last[e.EmployeeID]) {
				last[e.EmployeeID] = e.UpdatedAt
			}
		}
	}
	out := []domain.ActiveEmployee{}
	for id, at := range last {
		emp := m.employees.byID[id]
		out = append(out, domain.ActiveEmployee{
			EmployeeID:     id,
			Name:           emp.Name,
			DepartmentName: m.employees.department(emp.DepartmentID),
			LastActivity:   at,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivity.After(out[j].LastActivity) })
	return out, nil
}

func (m *memEntries) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
