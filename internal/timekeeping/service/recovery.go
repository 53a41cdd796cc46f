package service

import (
	"context"
	"fmt"
	"time"

	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/events"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/snapshot"
	"github.com/punchclock/punchclock-backend/pkg/actor"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/punchclock/punchclock-backend/pkg/errors"
	"github.com/punchclock/punchclock-backend/pkg/logger"
	"github.com/punchclock/punchclock-backend/pkg/tenant"
)

// RecoveryService clears a day's entries and undoes the last clear.
type RecoveryService struct {
	entries   EntryStore
	employees EmployeeStore
	snapshots snapshot.Store
	ttl       time.Duration
	publisher *events.Publisher
	clock     clock.Clock
	logger    *logger.Logger
}

// NewRecoveryService creates a new recovery service. ttl caps how long a
// clear stays undoable.
func NewRecoveryService(
	entries EntryStore,
	employees EmployeeStore,
	snapshots snapshot.Store,
	ttl time.Duration,
	publisher *events.Publisher,
	clk clock.Clock,
	log *logger.Logger,
) *RecoveryService {
	return &RecoveryService{
		entries:   entries,
		employees: employees,
		snapshots: snapshots,
		ttl:       ttl,
		publisher: publisher,
		clock:     clk,
		logger:    log,
	}
}

// snapshotKey scopes the snapshot to the caller's session.
func snapshotKey(ctx context.Context, a *actor.Actor) (string, error) {
	if a.SessionID == "" {
		return "", errors.Unauthorized("session required")
	}
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return "", errors.Forbidden("missing tenant context")
	}
	return snapshot.Key(tenantID, a.ID, a.SessionID), nil
}

// snapshotTTL ends the undo window no later than the caller's session. A
// session that has already ended gets no window at all.
func (s *RecoveryService) snapshotTTL(a *actor.Actor) time.Duration {
	if a.ExpiresAt.IsZero() {
		return s.ttl
	}
	remaining := a.ExpiresAt.Sub(s.clock.Now())
	if remaining <= 0 {
		return 0
	}
	if remaining < s.ttl {
		return remaining
	}
	return s.ttl
}

// ClearToday deletes today's entries of one managed employee, or of all
// of them when employeeID is empty, and returns how many were deleted.
// The snapshot is stored before the delete commits and replaces any
// earlier one, even when nothing was deleted.
func (s *RecoveryService) ClearToday(ctx context.Context, employeeID string) (int, error) {
	a, err := requireAdmin(ctx)
	if err != nil {
		return 0, err
	}
	key, err := snapshotKey(ctx, a)
	if err != nil {
		return 0, err
	}
	if employeeID != "" {
		if _, err := loadManaged(ctx, s.employees, a, employeeID); err != nil {
			return 0, err
		}
	}

	filter := domain.ClearFilter{
		AdminUserID: a.ID,
		EmployeeID:  employeeID,
		Date:        s.clock.Today(),
	}
	ttl := s.snapshotTTL(a)

	deleted, err := s.entries.DeleteForDate(ctx, filter, func(rows []domain.TimeEntry) error {
		if err := s.snapshots.Put(ctx, key, snapshot.New(rows, s.clock.Now()), ttl); err != nil {
			return fmt.Errorf("failed to store recovery snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.publisher.EntriesCleared(ctx, a, filter, len(deleted))

	s.logger.Info().
		Str("admin_id", a.ID).
		Str("employee_id", employeeID).
		Int("count", len(deleted)).
		Dur("undo_ttl", ttl).
		Msg("entries cleared")

	return len(deleted), nil
}

// UndoClear restores the caller's last clear and returns how many entries
// were recreated. Records whose employee is gone or now belongs to another
// admin are skipped. The snapshot is consumed either way. A snapshot left
// by a clear that deleted nothing counts as missing.
func (s *RecoveryService) UndoClear(ctx context.Context) (int, error) {
	a, err := requireAdmin(ctx)
	if err != nil {
		return 0, err
	}
	key, err := snapshotKey(ctx, a)
	if err != nil {
		return 0, err
	}

	snap, err := s.snapshots.Take(ctx, key)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			return 0, errors.NotFound("recovery_snapshot")
		}
		return 0, err
	}
	if len(snap.Records) == 0 {
		return 0, errors.NotFound("recovery_snapshot")
	}

	restored := 0
	for _, rec := range snap.Records {
		emp, err := s.employees.GetByID(ctx, rec.EmployeeID)
		if err != nil {
			s.skip(rec, err, "employee unavailable")
			continue
		}
		if !emp.ManagedBy(a.ID) {
			s.skip(rec, nil, "employee reassigned")
			continue
		}

		if err := s.entries.Insert(ctx, rec.Entry()); err != nil {
			s.skip(rec, err, "insert failed")
			continue
		}
		restored++
	}

	s.publisher.EntriesRestored(ctx, a, s.clock.Today(), restored)

	s.logger.Info().
		Str("admin_id", a.ID).
		Int("restored", restored).
		Int("snapshot_size", len(snap.Records)).
		Msg("clear undone")

	return restored, nil
}

func (s *RecoveryService) skip(rec snapshot.Record, err error, reason string) {
	s.logger.Warn().
		Err(err).
		Str("employee_id", rec.EmployeeID).
		Str("date", rec.Date.String()).
		Str("reason", reason).
		Msg("skipping snapshot record")
}
