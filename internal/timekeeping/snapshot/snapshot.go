// Package snapshot keeps the recovery copies taken when an admin clears a
// day's time entries, so the clear can be undone once within its window.
package snapshot

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/pkg/clock"
)

// ErrNotFound is returned by Take when no live snapshot exists for a key.
var ErrNotFound = errors.New("recovery snapshot not found")

// Record is the restorable content of one cleared entry. Identity, hours
// and segment index are not kept; a restore assigns fresh ones.
type Record struct {
	EmployeeID      string           `json:"employee_id"`
	Date            clock.Date       `json:"date"`
	StartTime       clock.TimeOfDay  `json:"start_time"`
	EndTime         *clock.TimeOfDay `json:"end_time,omitempty"`
	Status          domain.Status    `json:"status"`
	EntryType       domain.EntryType `json:"entry_type"`
	SessionID       string           `json:"session_id,omitempty"`
	SessionVerified bool             `json:"session_verified"`
}

// RecordOf captures e for later restore.
func RecordOf(e domain.TimeEntry) Record {
	return Record{
		EmployeeID:      e.EmployeeID,
		Date:            e.Date,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		Status:          e.Status,
		EntryType:       e.EntryType,
		SessionID:       e.SessionID,
		SessionVerified: e.SessionVerified,
	}
}

// Entry rebuilds a new, unsaved entry from r with its hours recomputed.
func (r Record) Entry() *domain.TimeEntry {
	e := &domain.TimeEntry{
		EmployeeID:      r.EmployeeID,
		Date:            r.Date,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		Status:          r.Status,
		EntryType:       r.EntryType,
		SessionID:       r.SessionID,
		SessionVerified: r.SessionVerified,
	}
	e.Recompute()
	return e
}

// Snapshot is everything removed by one clear.
type Snapshot struct {
	Records   []Record  `json:"records"`
	TakenAt   time.Time `json:"taken_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// New builds a snapshot of entries taken at now. Records are ordered by
// employee, date and segment index so a restore numbers the segments of a
// day in their original sequence.
func New(entries []domain.TimeEntry, now time.Time) Snapshot {
	sorted := make([]domain.TimeEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := &sorted[i], &sorted[j]
		if a.EmployeeID != b.EmployeeID {
			return a.EmployeeID < b.EmployeeID
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.SegmentIndex < b.SegmentIndex
	})

	records := make([]Record, 0, len(sorted))
	for _, e := range sorted {
		records = append(records, RecordOf(e))
	}
	return Snapshot{Records: records, TakenAt: now}
}

// Expired reports whether s is no longer restorable at now.
func (s Snapshot) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store holds at most one snapshot per key.
type Store interface {
	// Put saves s under key until now+ttl, replacing any earlier snapshot.
	Put(ctx context.Context, key string, s Snapshot, ttl time.Duration) error
	// Take returns and removes the snapshot under key. It returns
	// ErrNotFound if there is none or it has expired.
	Take(ctx context.Context, key string) (Snapshot, error)
	// Purge drops expired snapshots and reports how many it removed.
	Purge(ctx context.Context) (int, error)
}

// Key scopes a snapshot to one admin session within a tenant.
func Key(tenantID, adminUserID, sessionID string) string {
	return strings.Join([]string{tenantID, adminUserID, sessionID}, "/")
}
