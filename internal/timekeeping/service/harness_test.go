package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/events"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/service"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/snapshot"
	"github.com/punchclock/punchclock-backend/pkg/actor"
	"github.com/punchclock/punchclock-backend/pkg/auth"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/punchclock/punchclock-backend/pkg/config"
	"github.com/punchclock/punchclock-backend/pkg/logger"
	"github.com/punchclock/punchclock-backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

// Wednesday.
var now = time.Date(2024, time.March, 13, 10, 0, 0, 0, time.UTC)

type harness struct {
	t         *testing.T
	clock     *clock.Fixed
	tenant    *testutil.TestTenant
	fixtures  *testutil.FixtureFactory
	employees *memEmployees
	users     *memUsers
	entries   *memEntries
	snapshots *snapshot.MemoryStore
	published *testutil.MockPublisher
	tokens    *auth.PunchTokens

	resolver   *service.EmployeeResolver
	entrySvc   *service.EntryService
	stats      *service.StatisticsService
	dashboard  *service.DashboardService
	recovery   *service.RecoveryService
	averageCfg domain.AverageConfig
}

func newHarness(t *testing.T, mode string) *harness {
	clk := clock.NewFixed(now)
	employees := newMemEmployees()
	h := &harness{
		t:          t,
		clock:      clk,
		tenant:     testutil.NewTestTenant("acme"),
		fixtures:   testutil.NewFixtureFactory(),
		employees:  employees,
		users:      newMemUsers(clk),
		entries:    newMemEntries(employees, clk),
		snapshots:  snapshot.NewMemoryStore(clk),
		published:  testutil.NewMockPublisher(),
		averageCfg: domain.DefaultAverageConfig(),
		tokens: auth.NewPunchTokens(
			&config.JWTConfig{Secret: "test-secret", Issuer: "punchclock"},
			&config.PunchConfig{TokenMode: mode, TokenTTL: time.Hour},
			clk,
		),
	}
	h.build()
	return h
}

func (h *harness) build() {
	log := logger.Nop()
	pub := events.NewPublisher(h.published, log)
	h.resolver = service.NewEmployeeResolver(h.employees, h.users, h.clock, log)
	h.entrySvc = service.NewEntryService(h.entries, h.employees, h.resolver, h.tokens, pub, h.clock, log)
	h.stats = service.NewStatisticsService(h.entries, h.employees, h.resolver, h.averageCfg, h.clock, log)
	h.dashboard = service.NewDashboardService(h.entries, h.clock, log)
	h.recovery = service.NewRecoveryService(h.entries, h.employees, h.snapshots, 30*time.Minute, pub, h.clock, log)
}

func (h *harness) admin() *actor.Actor {
	return h.fixtures.Actor(h.tenant.ID, testutil.AsAdmin(), testutil.WithSessionExpiry(now.Add(8*time.Hour)))
}

func (h *harness) employee() *actor.Actor {
	return h.fixtures.Actor(h.tenant.ID)
}

func (h *harness) ctx(a *actor.Actor) context.Context {
	return testutil.ActorContext(testutil.WithTestTenant(context.Background(), h.tenant), a)
}

// hire creates an employee record for a managed by admin.
func (h *harness) hire(a *actor.Actor, admin *actor.Actor) *domain.Employee {
	return h.employees.add(h.fixtures.Employee(a.ID, admin.ID, testutil.WithEmployeeName(a.Name)))
}

// seed stores an entry directly.
func (h *harness) seed(emp *domain.Employee, date clock.Date, start, end string, opts ...func(*domain.TimeEntry)) *domain.TimeEntry {
	h.t.Helper()
	e := h.fixtures.Entry(emp.ID, date, start, end, opts...)
	require.NoError(h.t, h.entries.Insert(context.Background(), e))
	return e
}

func ptr[T any](v T) *T { return &v }
