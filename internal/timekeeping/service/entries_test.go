package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/service"
	"github.com/punchclock/punchclock-backend/pkg/actor"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/punchclock/punchclock-backend/pkg/config"
	"github.com/punchclock/punchclock-backend/pkg/errors"
	"github.com/punchclock/punchclock-backend/pkg/messaging"
	"github.com/punchclock/punchclock-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detail(t *testing.T, err error, field string) string {
	t.Helper()
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Details[field]
}

func TestResolveOrProvision(t *testing.T) {
	t.Run("admin manages themselves in Management", func(t *testing.T) {
		h := newHarness(t, config.TokenModePresence)
		admin := h.admin()

		emp, err := h.resolver.ResolveOrProvision(h.ctx(admin), admin)
		require.NoError(t, err)
		assert.True(t, emp.SelfManaged())
		require.NotNil(t, emp.DepartmentID)
		assert.Equal(t, h.employees.departments[domain.ManagementDepartment].ID, *emp.DepartmentID)
		assert.Equal(t, clock.NewDate(2024, time.March, 13), emp.HireDate)
	})

	t.Run("employee falls back to self without admins", func(t *testing.T) {
		h := newHarness(t, config.TokenModePresence)
		worker := h.employee()

		emp, err := h.resolver.ResolveOrProvision(h.ctx(worker), worker)
		require.NoError(t, err)
		assert.Equal(t, worker.ID, emp.AdminUserID)
		assert.Nil(t, emp.DepartmentID)
	})

	t.Run("employee gets the earliest admin", func(t *testing.T) {
		h := newHarness(t, config.TokenModePresence)
		first, second := h.admin(), h.admin()
		require.NoError(t, h.users.Upsert(context.Background(), actor.FromActor(first)))
		h.clock.Advance(time.Minute)
		require.NoError(t, h.users.Upsert(context.Background(), actor.FromActor(second)))

		worker := h.employee()
		emp, err := h.resolver.ResolveOrProvision(h.ctx(worker), worker)
		require.NoError(t, err)
		assert.Equal(t, first.ID, emp.AdminUserID)

		again, err := h.resolver.ResolveOrProvision(h.ctx(worker), worker)
		require.NoError(t, err)
		assert.Equal(t, emp.ID, again.ID, "provisioning is idempotent")
		assert.Len(t, h.employees.byID, 1)
	})
}

func TestPunchIn(t *testing.T) {
	t.Run("computes hours and assigns segments", func(t *testing.T) {
		h := newHarness(t, config.TokenModePresence)
		worker := h.employee()
		ctx := h.ctx(worker)

		first, err := h.entrySvc.PunchIn(ctx, service.PunchInput{
			StartTime: "09:00", EndTime: ptr("17:30"), SessionToken: "tok",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.Hours(850), first.TotalHours)
		assert.Equal(t, 1, first.SegmentIndex)
		assert.Equal(t, domain.StatusPending, first.Status)
		assert.Equal(t, domain.EntryTypeRegular, first.EntryType)
		assert.True(t, first.SessionVerified)
		assert.Equal(t, clock.NewDate(2024, time.March, 13), first.Date)

		open, err := h.entrySvc.PunchIn(ctx, service.PunchInput{
			StartTime: "18:00", EntryType: "Overtime", SessionToken: "tok",
		})
		require.NoError(t, err)
		assert.Equal(t, 2, open.SegmentIndex)
		assert.True(t, open.IsOpen())
		assert.Equal(t, domain.Hours(0), open.TotalHours)

		h.published.AssertEventPublished(t, messaging.EventEntryPunched)
	})

	t.Run("overnight segment wraps", func(t *testing.T) {
		h := newHarness(t, config.TokenModePresence)
		worker := h.employee()

		entry, err := h.entrySvc.PunchIn(h.ctx(worker), service.PunchInput{
			StartTime: "22:00", EndTime: ptr("06:00"), SessionToken: "tok",
		})
		require.NoError(t, err)
		assert.Equal(t, "8.00", entry.TotalHours.String())
	})

	t.Run("session token required", func(t *testing.T) {
		h := newHarness(t, config.TokenModePresence)
		worker := h.employee()

		_, err := h.entrySvc.PunchIn(h.ctx(worker), service.PunchInput{StartTime: "09:00"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrValidation))
		assert.NotEmpty(t, detail(t, err, "session_token"))
		assert.Zero(t, h.entries.count())
	})

	t.Run("malformed times", func(t *testing.T) {
		h := newHarness(t, config.TokenModePresence)
		worker := h.employee()

		_, err := h.entrySvc.PunchIn(h.ctx(worker), service.PunchInput{StartTime: "9am", SessionToken: "tok"})
		assert.Equal(t, "must be a time in HH:MM format", detail(t, err, "start_time"))

		_, err = h.entrySvc.PunchIn(h.ctx(worker), service.PunchInput{
			StartTime: "09:00", EndTime: ptr("25:00"), SessionToken: "tok",
		})
		assert.NotEmpty(t, detail(t, err, "end_time"))

		_, err = h.entrySvc.PunchIn(h.ctx(worker), service.PunchInput{
			StartTime: "09:00", EntryType: "Nap", SessionToken: "tok",
		})
		assert.NotEmpty(t, detail(t, err, "entry_type"))
	})

	t.Run("explicit segment collision is a conflict", func(t *testing.T) {
		h := newHarness(t, config.TokenModePresence)
		worker := h.employee()
		ctx := h.ctx(worker)

		_, err := h.entrySvc.PunchIn(ctx, service.PunchInput{StartTime: "09:00", SessionToken: "tok", SegmentIndex: ptr(1)})
		require.NoError(t, err)
		_, err = h.entrySvc.PunchIn(ctx, service.PunchInput{StartTime: "13:00", SessionToken: "tok", SegmentIndex: ptr(1)})
		assert.True(t, errors.Is(err, errors.ErrConflict))
	})

	t.Run("unauthenticated", func(t *testing.T) {
		h := newHarness(t, config.TokenModePresence)
		_, err := h.entrySvc.PunchIn(context.Background(), service.PunchInput{StartTime: "09:00", SessionToken: "tok"})
		assert.True(t, errors.Is(err, errors.ErrUnauthorized))
	})
}

func TestPunchIn_SignedTokens(t *testing.T) {
	h := newHarness(t, config.TokenModeSigned)
	worker := h.employee()
	ctx := h.ctx(worker)

	token, err := h.entrySvc.IssuePunchToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, config.TokenModeSigned, token.Mode)
	assert.Equal(t, now.Add(time.Hour), token.ExpiresAt)

	verified, err := h.entrySvc.PunchIn(ctx, service.PunchInput{StartTime: "09:00", SessionToken: token.Token})
	require.NoError(t, err)
	assert.True(t, verified.SessionVerified)

	forged, err := h.entrySvc.PunchIn(ctx, service.PunchInput{StartTime: "13:00", SessionToken: "forged"})
	require.NoError(t, err, "an unverifiable token still records the punch")
	assert.False(t, forged.SessionVerified)

	other := h.employee()
	stolen, err := h.entrySvc.PunchIn(h.ctx(other), service.PunchInput{StartTime: "09:00", SessionToken: token.Token})
	require.NoError(t, err)
	assert.False(t, stolen.SessionVerified)

	relogged := *worker
	relogged.SessionID = "another-login"
	replayed, err := h.entrySvc.PunchIn(h.ctx(&relogged), service.PunchInput{StartTime: "14:00", SessionToken: token.Token})
	require.NoError(t, err)
	assert.False(t, replayed.SessionVerified)
}

func TestUpdateTimeEntry_RecomputesHours(t *testing.T) {
	h := newHarness(t, config.TokenModePresence)
	admin := h.admin()
	worker := h.employee()
	emp := h.hire(worker, admin)
	entry := h.seed(emp, clock.NewDate(2024, time.March, 13), "09:00", "17:00")
	require.Equal(t, domain.Hours(800), entry.TotalHours)

	ctx := h.ctx(worker)
	updated, err := h.entrySvc.UpdateTimeEntry(ctx, entry.ID, service.UpdateEntryInput{
		EndTime: service.NullableString{Set: true, Value: ptr("18:00")},
	})
	require.NoError(t, err)
	assert.Equal(t, "9.00", updated.TotalHours.String())
	assert.Equal(t, clock.MustTimeOfDay("09:00"), updated.StartTime)

	updated, err = h.entrySvc.UpdateTimeEntry(ctx, entry.ID, service.UpdateEntryInput{StartTime: ptr("10:30")})
	require.NoError(t, err)
	assert.Equal(t, "7.50", updated.TotalHours.String())

	reopened, err := h.entrySvc.UpdateTimeEntry(ctx, entry.ID, service.UpdateEntryInput{
		EndTime: service.NullableString{Set: true},
	})
	require.NoError(t, err)
	assert.True(t, reopened.IsOpen())
	assert.Equal(t, domain.Hours(0), reopened.TotalHours)

	stored, err := h.entries.GetByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, reopened.TotalHours, stored.TotalHours)
}

func TestUpdateTimeEntry_Validation(t *testing.T) {
	h := newHarness(t, config.TokenModePresence)
	admin := h.admin()
	emp := h.hire(h.employee(), admin)
	entry := h.seed(emp, clock.NewDate(2024, time.March, 13), "09:00", "17:00")

	_, err := h.entrySvc.UpdateTimeEntry(h.ctx(admin), entry.ID, service.UpdateEntryInput{Date: ptr("13.03.2024")})
	assert.Equal(t, "must be a date in YYYY-MM-DD format", detail(t, err, "date"))

	_, err = h.entrySvc.UpdateTimeEntry(h.ctx(admin), "missing", service.UpdateEntryInput{})
	assert.True(t, errors.IsNotFound(err))
}

func TestUpdateEntryStatus_AuthorizationBoundary(t *testing.T) {
	h := newHarness(t, config.TokenModePresence)
	admin := h.admin()
	owner, intruder := h.employee(), h.employee()
	ownerEmp := h.hire(owner, admin)
	h.hire(intruder, admin)
	entry := h.seed(ownerEmp, clock.NewDate(2024, time.March, 13), "09:00", "17:00")

	for _, status := range []string{"approved", "rejected", "pending", "bogus", ""} {
		_, err := h.entrySvc.UpdateEntryStatus(h.ctx(intruder), entry.ID, status)
		assert.True(t, errors.Is(err, errors.ErrForbidden), "status %q", status)
	}

	otherAdmin := h.admin()
	_, err := h.entrySvc.UpdateEntryStatus(h.ctx(otherAdmin), entry.ID, "approved")
	assert.True(t, errors.Is(err, errors.ErrForbidden), "admin of someone else")

	_, err = h.entrySvc.UpdateEntryStatus(h.ctx(admin), entry.ID, "done")
	assert.True(t, errors.Is(err, errors.ErrValidation))

	updated, err := h.entrySvc.UpdateEntryStatus(h.ctx(admin), entry.ID, "approved")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, updated.Status)

	updated, err = h.entrySvc.UpdateEntryStatus(h.ctx(owner), entry.ID, "rejected")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, updated.Status)

	_, err = h.entrySvc.UpdateEntryStatus(h.ctx(admin), "missing", "approved")
	assert.True(t, errors.IsNotFound(err))

	h.published.AssertEventPublished(t, messaging.EventEntryStatusChanged)
}

func TestApproveAllToday(t *testing.T) {
	h := newHarness(t, config.TokenModePresence)
	admin, otherAdmin := h.admin(), h.admin()
	mine := h.hire(h.employee(), admin)
	theirs := h.hire(h.employee(), otherAdmin)
	today := clock.NewDate(2024, time.March, 13)

	a := h.seed(mine, today, "08:00", "12:00")
	b := h.seed(mine, today, "13:00", "17:00")
	rejected := h.seed(mine, today, "18:00", "19:00", testutil.WithStatus(domain.StatusRejected))
	yesterday := h.seed(mine, today.AddDays(-1), "08:00", "12:00")
	foreign := h.seed(theirs, today, "08:00", "12:00")

	n, err := h.entrySvc.ApproveAllToday(h.ctx(admin))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for id, want := range map[string]domain.Status{
		a.ID: domain.StatusApproved, b.ID: domain.StatusApproved,
		rejected.ID: domain.StatusRejected, yesterday.ID: domain.StatusPending, foreign.ID: domain.StatusPending,
	} {
		got, err := h.entries.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status)
	}

	h.published.Reset()
	n, err = h.entrySvc.ApproveAllToday(h.ctx(admin))
	require.NoError(t, err)
	assert.Zero(t, n)
	h.published.AssertNoEventsPublished(t)

	_, err = h.entrySvc.ApproveAllToday(h.ctx(h.employee()))
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestGetTodayEntries(t *testing.T) {
	h := newHarness(t, config.TokenModePresence)
	admin := h.admin()
	alice := h.fixtures.Actor(h.tenant.ID, testutil.WithActorName("Alice"))
	bob := h.fixtures.Actor(h.tenant.ID, testutil.WithActorName("Bob"))
	aliceEmp, bobEmp := h.hire(alice, admin), h.hire(bob, admin)
	stranger := h.hire(h.employee(), h.admin())
	today := clock.NewDate(2024, time.March, 13)

	h.seed(bobEmp, today, "08:00", "12:00")
	h.seed(aliceEmp, today, "13:00", "14:00")
	h.seed(aliceEmp, today, "09:00", "10:00")
	h.seed(aliceEmp, today.AddDays(-1), "09:00", "10:00")
	h.seed(stranger, today, "09:00", "10:00")

	views, err := h.entrySvc.GetTodayEntries(h.ctx(admin))
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "Alice", views[0].EmployeeName)
	assert.Equal(t, 1, views[0].SegmentIndex)
	assert.Equal(t, "Alice", views[1].EmployeeName)
	assert.Equal(t, 2, views[1].SegmentIndex)
	assert.Equal(t, "Bob", views[2].EmployeeName)
	assert.Equal(t, "N/A", views[2].DepartmentName)

	own, err := h.entrySvc.GetTodayEntries(h.ctx(bob))
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, bobEmp.ID, own[0].EmployeeID)
}

func TestCreateTimeEntry(t *testing.T) {
	h := newHarness(t, config.TokenModePresence)
	admin := h.admin()
	worker := h.employee()
	managed := h.hire(worker, admin)
	unmanaged := h.hire(h.employee(), h.admin())

	entry, err := h.entrySvc.CreateTimeEntry(h.ctx(admin), service.CreateEntryInput{
		Date: "2024-03-11", StartTime: "08:00", EndTime: ptr("16:15"),
		EmployeeID: managed.ID, Status: "approved",
	})
	require.NoError(t, err)
	assert.Equal(t, managed.ID, entry.EmployeeID)
	assert.Equal(t, "8.25", entry.TotalHours.String())
	assert.Equal(t, domain.StatusApproved, entry.Status)
	assert.False(t, entry.SessionVerified, "no session token")

	_, err = h.entrySvc.CreateTimeEntry(h.ctx(admin), service.CreateEntryInput{
		Date: "2024-03-11", StartTime: "08:00", EmployeeID: unmanaged.ID,
	})
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	_, err = h.entrySvc.CreateTimeEntry(h.ctx(admin), service.CreateEntryInput{
		Date: "2024-03-11", StartTime: "08:00", EmployeeID: "missing",
	})
	assert.True(t, errors.IsNotFound(err))

	own, err := h.entrySvc.CreateTimeEntry(h.ctx(worker), service.CreateEntryInput{
		Date: "2024-03-12", StartTime: "08:00", EmployeeID: unmanaged.ID,
		Status: "approved", SessionToken: "tok",
	})
	require.NoError(t, err)
	assert.Equal(t, managed.ID, own.EmployeeID, "non-admins always target themselves")
	assert.Equal(t, domain.StatusPending, own.Status)
	assert.True(t, own.SessionVerified)

	_, err = h.entrySvc.CreateTimeEntry(h.ctx(worker), service.CreateEntryInput{StartTime: "08:00"})
	assert.NotEmpty(t, detail(t, err, "date"))
}

func TestDeleteTimeEntry(t *testing.T) {
	h := newHarness(t, config.TokenModePresence)
	admin := h.admin()
	worker := h.employee()
	emp := h.hire(worker, admin)
	entry := h.seed(emp, clock.NewDate(2024, time.March, 13), "09:00", "17:00")

	_, err := h.entrySvc.DeleteTimeEntry(h.ctx(h.employee()), entry.ID)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	deleted, err := h.entrySvc.DeleteTimeEntry(h.ctx(worker), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, deleted.ID)
	assert.Zero(t, h.entries.count())

	_, err = h.entrySvc.DeleteTimeEntry(h.ctx(worker), entry.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestGetRecentActivities(t *testing.T) {
	h := newHarness(t, config.TokenModePresence)
	admin := h.admin()
	worker := h.employee()
	emp := h.hire(worker, admin)
	today := clock.NewDate(2024, time.March, 13)

	h.seed(emp, today.AddDays(-5), "09:00", "10:00")
	for i := 0; i < 12; i++ {
		h.clock.Advance(time.Minute)
		h.seed(emp, today.AddDays(-(i % 5)), "09:00", "10:00")
	}

	recent, err := h.entrySvc.GetRecentActivities(h.ctx(worker))
	require.NoError(t, err)
	require.Len(t, recent, domain.RecentLimit)
	for i := 1; i < len(recent); i++ {
		assert.False(t, recent[i].CreatedAt.After(recent[i-1].CreatedAt))
	}
	for _, e := range recent {
		assert.False(t, e.Date.Before(today.AddDays(-domain.RecentDays)))
	}
}

func TestGetEmployeeTimeEntries(t *testing.T) {
	h := newHarness(t, config.TokenModePresence)
	admin := h.admin()
	emp := h.hire(h.employee(), admin)
	day := clock.NewDate(2024, time.March, 11)
	h.seed(emp, day, "09:00", "10:00")
	h.seed(emp, clock.NewDate(2024, time.March, 13), "09:00", "10:00")

	views, err := h.entrySvc.GetEmployeeTimeEntries(h.ctx(admin), emp.ID, &day)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, day, views[0].Date)

	_, err = h.entrySvc.GetEmployeeTimeEntries(h.ctx(h.admin()), emp.ID, nil)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	_, err = h.entrySvc.GetEmployeeTimeEntries(h.ctx(h.employee()), emp.ID, nil)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}
