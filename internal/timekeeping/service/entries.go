package service

import (
	"context"
	"time"

	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/events"
	"github.com/punchclock/punchclock-backend/pkg/actor"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/punchclock/punchclock-backend/pkg/errors"
	"github.com/punchclock/punchclock-backend/pkg/logger"
)

// EntryService handles the time entry lifecycle
type EntryService struct {
	entries   EntryStore
	employees EmployeeStore
	resolver  *EmployeeResolver
	tokens    PunchTokens
	publisher *events.Publisher
	clock     clock.Clock
	logger    *logger.Logger
}

// NewEntryService creates a new entry service
func NewEntryService(
	entries EntryStore,
	employees EmployeeStore,
	resolver *EmployeeResolver,
	tokens PunchTokens,
	publisher *events.Publisher,
	clk clock.Clock,
	log *logger.Logger,
) *EntryService {
	return &EntryService{
		entries:   entries,
		employees: employees,
		resolver:  resolver,
		tokens:    tokens,
		publisher: publisher,
		clock:     clk,
		logger:    log,
	}
}

// PunchToken is a token the client presents with its next punch.
type PunchToken struct {
	Token     string    `json:"session_token"`
	ExpiresAt time.Time `json:"expires_at"`
	Mode      string    `json:"mode"`
}

// IssuePunchToken issues a punch token for the caller.
func (s *EntryService) IssuePunchToken(ctx context.Context) (*PunchToken, error) {
	a, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.tokens.Issue(a)
	if err != nil {
		return nil, err
	}
	return &PunchToken{Token: token, ExpiresAt: expiresAt, Mode: s.tokens.Mode()}, nil
}

// PunchIn records a segment for the caller today.
func (s *EntryService) PunchIn(ctx context.Context, in PunchInput) (*domain.TimeEntry, error) {
	a, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}

	if in.SessionToken == "" {
		return nil, errors.InvalidField("session_token", "is required")
	}
	start, err := parseTime("start_time", in.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalTime("end_time", in.EndTime)
	if err != nil {
		return nil, err
	}
	entryType, err := parseEntryType(in.EntryType)
	if err != nil {
		return nil, err
	}
	segment, err := segmentIndex(in.SegmentIndex)
	if err != nil {
		return nil, err
	}

	emp, err := s.resolver.ResolveOrProvision(ctx, a)
	if err != nil {
		return nil, err
	}

	entry := &domain.TimeEntry{
		EmployeeID:      emp.ID,
		Date:            s.clock.Today(),
		StartTime:       start,
		EndTime:         end,
		EntryType:       entryType,
		Status:          domain.StatusPending,
		SessionID:       a.SessionID,
		SessionVerified: s.tokens.Verify(in.SessionToken, a),
		SegmentIndex:    segment,
	}
	entry.Recompute()

	if err := s.entries.Insert(ctx, entry); err != nil {
		return nil, err
	}

	s.publisher.EntryPunched(ctx, a, entry)

	s.logger.Info().
		Str("entry_id", entry.ID).
		Str("employee_id", entry.EmployeeID).
		Int("segment_index", entry.SegmentIndex).
		Bool("session_verified", entry.SessionVerified).
		Msg("punch recorded")

	return entry, nil
}

// CreateTimeEntry records a manual entry for any date.
func (s *EntryService) CreateTimeEntry(ctx context.Context, in CreateEntryInput) (*domain.TimeEntry, error) {
	a, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}

	date, err := parseDate("date", in.Date)
	if err != nil {
		return nil, err
	}
	start, err := parseTime("start_time", in.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalTime("end_time", in.EndTime)
	if err != nil {
		return nil, err
	}
	entryType, err := parseEntryType(in.EntryType)
	if err != nil {
		return nil, err
	}
	segment, err := segmentIndex(in.SegmentIndex)
	if err != nil {
		return nil, err
	}
	status := domain.StatusPending
	if a.IsAdmin && in.Status != "" {
		if status, err = parseStatus(in.Status); err != nil {
			return nil, err
		}
	}

	var emp *domain.Employee
	if a.IsAdmin && in.EmployeeID != "" {
		emp, err = s.employees.GetByID(ctx, in.EmployeeID)
		if err != nil {
			return nil, err
		}
		if !canAccess(a, emp) {
			return nil, errors.Forbidden("employee is not managed by you")
		}
	} else {
		emp, err = s.resolver.ResolveOrProvision(ctx, a)
		if err != nil {
			return nil, err
		}
	}

	entry := &domain.TimeEntry{
		EmployeeID:      emp.ID,
		Date:            date,
		StartTime:       start,
		EndTime:         end,
		EntryType:       entryType,
		Status:          status,
		SessionID:       a.SessionID,
		SessionVerified: s.tokens.Verify(in.SessionToken, a),
		SegmentIndex:    segment,
	}
	entry.Recompute()

	if err := s.entries.Insert(ctx, entry); err != nil {
		return nil, err
	}

	s.publisher.EntryCreated(ctx, a, entry)

	s.logger.Info().
		Str("entry_id", entry.ID).
		Str("employee_id", entry.EmployeeID).
		Str("actor_id", a.ID).
		Msg("time entry created")

	return entry, nil
}

// loadForUpdate loads an entry and checks the caller may change it.
func (s *EntryService) loadForUpdate(ctx context.Context, id string) (*actor.Actor, *domain.TimeEntry, error) {
	a, err := currentActor(ctx)
	if err != nil {
		return nil, nil, err
	}
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	emp, err := s.employees.GetByID(ctx, entry.EmployeeID)
	if err != nil {
		return nil, nil, err
	}
	if !canAccess(a, emp) {
		return nil, nil, errors.Forbidden("you may only change your own or your employees' entries")
	}
	return a, entry, nil
}

// UpdateTimeEntry applies the given fields and recomputes the hours.
func (s *EntryService) UpdateTimeEntry(ctx context.Context, id string, in UpdateEntryInput) (*domain.TimeEntry, error) {
	a, entry, err := s.loadForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Date != nil {
		if entry.Date, err = parseDate("date", *in.Date); err != nil {
			return nil, err
		}
	}
	if in.StartTime != nil {
		if entry.StartTime, err = parseTime("start_time", *in.StartTime); err != nil {
			return nil, err
		}
	}
	if in.EndTime.Set {
		if entry.EndTime, err = parseOptionalTime("end_time", in.EndTime.Value); err != nil {
			return nil, err
		}
	}
	if in.EntryType != nil {
		if entry.EntryType, err = parseEntryType(*in.EntryType); err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		if entry.Status, err = parseStatus(*in.Status); err != nil {
			return nil, err
		}
	}
	if in.SegmentIndex != nil {
		if entry.SegmentIndex, err = segmentIndex(in.SegmentIndex); err != nil {
			return nil, err
		}
	}
	entry.Recompute()

	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.publisher.EntryUpdated(ctx, a, entry)

	s.logger.Info().
		Str("entry_id", entry.ID).
		Str("actor_id", a.ID).
		Str("total_hours", entry.TotalHours.String()).
		Msg("time entry updated")

	return entry, nil
}

// DeleteTimeEntry deletes an entry and returns it.
func (s *EntryService) DeleteTimeEntry(ctx context.Context, id string) (*domain.TimeEntry, error) {
	a, entry, err := s.loadForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	deleted, err := s.entries.Delete(ctx, entry.ID)
	if err != nil {
		return nil, err
	}

	s.publisher.EntryDeleted(ctx, a, deleted)

	s.logger.Info().
		Str("entry_id", deleted.ID).
		Str("actor_id", a.ID).
		Msg("time entry deleted")

	return deleted, nil
}

// UpdateEntryStatus sets the status of one entry. Permission is checked
// before the status value.
func (s *EntryService) UpdateEntryStatus(ctx context.Context, id string, status string) (*domain.TimeEntry, error) {
	a, entry, err := s.loadForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	newStatus, err := parseStatus(status)
	if err != nil {
		return nil, err
	}

	old := entry.Status
	updated, err := s.entries.UpdateStatus(ctx, entry.ID, newStatus)
	if err != nil {
		return nil, err
	}

	s.publisher.StatusChanged(ctx, a, updated, old)

	s.logger.Info().
		Str("entry_id", updated.ID).
		Str("old_status", string(old)).
		Str("new_status", string(updated.Status)).
		Str("actor_id", a.ID).
		Msg("time entry status changed")

	return updated, nil
}

// ApproveAllToday approves today's pending entries of the caller's employees.
func (s *EntryService) ApproveAllToday(ctx context.Context) (int, error) {
	a, err := requireAdmin(ctx)
	if err != nil {
		return 0, err
	}

	today := s.clock.Today()
	n, err := s.entries.ApprovePending(ctx, a.ID, today)
	if err != nil {
		return 0, err
	}

	if n > 0 {
		s.publisher.EntriesApproved(ctx, a, today, n)
	}

	s.logger.Info().Str("admin_id", a.ID).Int("count", n).Msg("pending entries approved")

	return n, nil
}

// GetTodayEntries lists today's entries visible to the caller: an admin
// sees every managed employee plus themselves, others only their own.
func (s *EntryService) GetTodayEntries(ctx context.Context) ([]domain.EntryView, error) {
	a, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}
	emp, err := s.resolver.ResolveOrProvision(ctx, a)
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	if a.IsAdmin {
		return s.entries.ListViewsForAdmin(ctx, a.ID, today)
	}
	return s.entries.ListViewsForEmployee(ctx, emp.ID, today)
}

// GetRecentActivities lists the caller's latest entries from the last few days.
func (s *EntryService) GetRecentActivities(ctx context.Context) ([]domain.TimeEntry, error) {
	a, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}
	emp, err := s.resolver.ResolveOrProvision(ctx, a)
	if err != nil {
		return nil, err
	}
	since := s.clock.Today().AddDays(-domain.RecentDays)
	return s.entries.ListRecent(ctx, emp.ID, since, domain.RecentLimit)
}

// GetEmployeeTimeEntries lists one managed employee's entries on date,
// today when date is nil.
func (s *EntryService) GetEmployeeTimeEntries(ctx context.Context, employeeID string, date *clock.Date) ([]domain.EntryView, error) {
	a, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	emp, err := loadManaged(ctx, s.employees, a, employeeID)
	if err != nil {
		return nil, err
	}

	d := s.clock.Today()
	if date != nil {
		d = *date
	}
	return s.entries.ListViewsForEmployee(ctx, emp.ID, d)
}
