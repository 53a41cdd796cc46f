//go:build integration

package repository_test

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/repository"
	"github.com/punchclock/punchclock-backend/pkg/actor"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/punchclock/punchclock-backend/pkg/errors"
	"github.com/punchclock/punchclock-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}

	code := m.Run()
	_ = suite.Cleanup(ctx)
	testutil.TerminateContainer(ctx)
	os.Exit(code)
}

type repos struct {
	entries   *repository.EntryRepository
	employees *repository.EmployeeRepository
	users     *repository.UserCacheRepository
}

func newRepos() repos {
	return repos{
		entries:   repository.NewEntryRepository(suite.DB),
		employees: repository.NewEmployeeRepository(suite.DB),
		users:     repository.NewUserCacheRepository(suite.DB),
	}
}

func seedEmployee(t *testing.T, ctx context.Context, r repos, userID, adminUserID string) *domain.Employee {
	t.Helper()
	emp, err := r.employees.CreateIfAbsent(ctx, suite.Fixtures.Employee(userID, adminUserID))
	require.NoError(t, err)
	return emp
}

func TestEntryRepository_SegmentsAreSequential(t *testing.T) {
	tenant := suite.SetupTenant(t, "segments")
	ctx := suite.TenantContext(tenant)
	r := newRepos()
	emp := seedEmployee(t, ctx, r, "00000000-0000-0000-0000-000000000001", "00000000-0000-0000-0000-0000000000aa")
	date := clock.NewDate(2024, time.March, 13)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.entries.Insert(ctx, suite.Fixtures.Entry(emp.ID, date, "09:00", ""))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	entries, err := r.entries.ListForEmployee(ctx, emp.ID, date, date, false)
	require.NoError(t, err)
	require.Len(t, entries, n)
	for i, e := range entries {
		assert.Equal(t, i+1, e.SegmentIndex)
	}

	dup := suite.Fixtures.Entry(emp.ID, date, "18:00", "19:00", testutil.WithSegment(1))
	err = r.entries.Insert(ctx, dup)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestEntryRepository_RowLevelSecurity(t *testing.T) {
	tenantA := suite.SetupTenant(t, "rls-a")
	tenantB := suite.SetupTenant(t, "rls-b")
	ctxA := suite.TenantContext(tenantA)
	ctxB := suite.TenantContext(tenantB)
	r := newRepos()
	date := clock.NewDate(2024, time.March, 13)

	emp := seedEmployee(t, ctxA, r, "00000000-0000-0000-0000-000000000002", "00000000-0000-0000-0000-0000000000aa")
	entry := suite.Fixtures.Entry(emp.ID, date, "08:00", "12:00")
	require.NoError(t, r.entries.Insert(ctxA, entry))
	assert.Equal(t, tenantA.ID, entry.TenantID)

	_, err := r.entries.GetByID(ctxB, entry.ID)
	assert.True(t, errors.IsNotFound(err), "tenant B must not see tenant A's entry")

	_, err = r.employees.GetByID(ctxB, emp.ID)
	assert.True(t, errors.IsNotFound(err))

	n, err := r.entries.ApprovePending(ctxB, emp.AdminUserID, date)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := r.entries.GetByID(ctxA, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Hours(400), got.TotalHours)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestEntryRepository_DeleteForDateRollsBack(t *testing.T) {
	tenant := suite.SetupTenant(t, "clear-rollback")
	ctx := suite.TenantContext(tenant)
	r := newRepos()
	admin := "00000000-0000-0000-0000-0000000000aa"
	date := clock.NewDate(2024, time.March, 13)

	emp := seedEmployee(t, ctx, r, "00000000-0000-0000-0000-000000000003", admin)
	require.NoError(t, r.entries.Insert(ctx, suite.Fixtures.Entry(emp.ID, date, "08:00", "09:00")))

	_, err := r.entries.DeleteForDate(ctx, domain.ClearFilter{AdminUserID: admin, Date: date},
		func([]domain.TimeEntry) error { return errors.Internal("boom") })
	require.Error(t, err)

	entries, err := r.entries.ListForEmployee(ctx, emp.ID, date, date, false)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	deleted, err := r.entries.DeleteForDate(ctx, domain.ClearFilter{AdminUserID: admin, Date: date}, nil)
	require.NoError(t, err)
	assert.Len(t, deleted, 1)
}

func TestUserCacheRepository_FirstAdmin(t *testing.T) {
	tenant := suite.SetupTenant(t, "first-admin")
	ctx := suite.TenantContext(tenant)
	r := newRepos()

	first := &actor.CachedUser{UserID: "00000000-0000-0000-0000-0000000000b1", Name: "First", Email: "first@example.com", IsAdmin: true}
	second := &actor.CachedUser{UserID: "00000000-0000-0000-0000-0000000000b2", Name: "Second", Email: "second@example.com", IsAdmin: true}
	require.NoError(t, r.users.Upsert(ctx, first))
	require.NoError(t, r.users.Upsert(ctx, second))

	// Re-upserting keeps the original created_at.
	first.Name = "First Renamed"
	require.NoError(t, r.users.Upsert(ctx, first))

	admin, err := r.users.FirstAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.UserID, admin.UserID)
	assert.Equal(t, "First Renamed", admin.Name)
}
