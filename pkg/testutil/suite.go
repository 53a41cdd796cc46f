package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/punchclock/punchclock-backend/migrations"
	"github.com/punchclock/punchclock-backend/pkg/config"
	"github.com/punchclock/punchclock-backend/pkg/database"
	"github.com/punchclock/punchclock-backend/pkg/logger"
)

const (
	appRole     = "punchclock_app"
	appPassword = "punchclock_app"
)

var (
	// Global test container (shared across all integration tests)
	globalContainer *PostgresContainer
	globalDB        *sqlx.DB
	containerOnce   sync.Once
	containerErr    error
)

// tenantTables lists tables holding tenant rows, children first.
var tenantTables = []string{"time_entries", "employees", "departments", "user_cache"}

// IntegrationSuite provides a base for integration tests with real PostgreSQL.
// RawDB connects as the container superuser and is used only for setup and
// cleanup. DB connects as an unprivileged role so row-level security is
// enforced exactly as in production.
type IntegrationSuite struct {
	Container *PostgresContainer
	RawDB     *sqlx.DB
	DB        *database.DB
	Fixtures  *FixtureFactory
	Logger    *logger.Logger
}

// NewIntegrationSuite creates a new integration test suite.
// Call this in TestMain to set up shared test infrastructure.
//
// Usage:
//
//	var suite *testutil.IntegrationSuite
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//	    s, err := testutil.NewIntegrationSuite(ctx)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    suite = s
//	    code := m.Run()
//	    testutil.TerminateContainer(ctx)
//	    os.Exit(code)
//	}
//
//	func TestSomething(t *testing.T) {
//	    tenant := suite.SetupTenant(t, "test-tenant")
//	    ctx := suite.TenantContext(tenant)
//	    // ... run tests with tenant context
//	}
func NewIntegrationSuite(ctx context.Context) (*IntegrationSuite, error) {
	container, db, err := getOrCreateContainer(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.New("test", "test", "warn")

	if _, err := migrations.Run(ctx, db, log); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := container.CreateAppRole(ctx, db, appRole, appPassword); err != nil {
		return nil, err
	}

	parsed, err := config.ParseDatabaseURL(container.DSN)
	if err != nil {
		return nil, err
	}
	wrappedDB, err := database.NewWithDSN(parsed.WithCredentials(appRole, appPassword).ToURL(), log)
	if err != nil {
		return nil, err
	}

	return &IntegrationSuite{
		Container: container,
		RawDB:     db,
		DB:        wrappedDB,
		Fixtures:  NewFixtureFactory(),
		Logger:    log,
	}, nil
}

// getOrCreateContainer returns the shared test container
func getOrCreateContainer(ctx context.Context) (*PostgresContainer, *sqlx.DB, error) {
	containerOnce.Do(func() {
		globalContainer, containerErr = NewPostgresContainer(ctx, DefaultPostgresConfig())
		if containerErr != nil {
			return
		}
		globalDB, containerErr = globalContainer.Connect(ctx)
	})

	return globalContainer, globalDB, containerErr
}

// SetupTenant creates a fresh tenant for a specific test and removes its
// rows when the test finishes. Each test should use its own tenant for isolation.
func (s *IntegrationSuite) SetupTenant(t *testing.T, name string) *TestTenant {
	t.Helper()

	tenant := NewTestTenant(name)
	t.Cleanup(func() {
		if err := s.DropTenant(context.Background(), tenant); err != nil {
			t.Logf("warning: failed to clean tenant %s: %v", tenant.Slug, err)
		}
	})
	return tenant
}

// DropTenant deletes every row owned by the tenant.
func (s *IntegrationSuite) DropTenant(ctx context.Context, tenant *TestTenant) error {
	for _, table := range tenantTables {
		query := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = $1", table)
		if _, err := s.RawDB.ExecContext(ctx, query, tenant.ID); err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

// TenantContext returns a context with the tenant set
func (s *IntegrationSuite) TenantContext(tenant *TestTenant) context.Context {
	return WithTestTenant(context.Background(), tenant)
}

// Cleanup closes the suite's connections. The shared container keeps running
// until TerminateContainer.
func (s *IntegrationSuite) Cleanup(ctx context.Context) error {
	return s.DB.Close()
}

// TerminateContainer terminates the shared container.
// Only call this in TestMain after all tests have completed.
func TerminateContainer(ctx context.Context) {
	if globalDB != nil {
		_ = globalDB.Close()
	}
	if globalContainer != nil {
		_ = globalContainer.Terminate(ctx)
	}
}

// UnitTestSuite provides a base for unit tests with mocked dependencies
type UnitTestSuite struct {
	MockDB   *MockDB
	Fixtures *FixtureFactory
	t        *testing.T
}

// NewUnitTestSuite creates a new unit test suite
func NewUnitTestSuite(t *testing.T) *UnitTestSuite {
	return &UnitTestSuite{
		MockDB:   NewMockDB(t),
		Fixtures: NewFixtureFactory(),
		t:        t,
	}
}

// Cleanup verifies expectations and cleans up
func (s *UnitTestSuite) Cleanup() {
	s.MockDB.ExpectationsWereMet(s.t)
	_ = s.MockDB.Close()
}

// GetEnvOrDefault returns environment variable or default value
func GetEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// IsCI returns true if running in CI environment
func IsCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}
