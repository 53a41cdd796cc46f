package repository_test

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/punchclock/punchclock-backend/internal/timekeeping/repository"
	"github.com/punchclock/punchclock-backend/pkg/actor"
	"github.com/punchclock/punchclock-backend/pkg/errors"
	"github.com/punchclock/punchclock-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var employeeCols = []string{
	"id", "tenant_id", "user_id", "name", "admin_user_id", "department_id",
	"hire_date", "created_at", "updated_at",
}

func TestEmployeeRepository_CreateIfAbsent(t *testing.T) {
	ctx, tenantID := mockTenantContext()
	now := time.Now().UTC()

	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewEmployeeRepository(mockDB.Database())

	emp := testutil.NewFixtureFactory().Employee("user-1", "admin-1", testutil.WithEmployeeName("Erika Muster"))

	mockDB.ExpectTenantBegin(tenantID)
	mockDB.ExpectExec("ON CONFLICT (tenant_id, user_id) DO NOTHING").
		WithArgs("user-1", "Erika Muster", "admin-1", nil, "2023-01-02").
		WillReturnResult(sqlmock.NewResult(0, 0))
	// The account already had a record; the stored one wins.
	mockDB.ExpectQuery("FROM employees WHERE user_id = $1").
		WithArgs("user-1").
		WillReturnRows(testutil.MockRows(employeeCols...).
			AddRow("emp-existing", tenantID, "user-1", "Erika M.", "admin-1", nil, "2022-05-01", now, now))
	mockDB.ExpectCommit()

	stored, err := repo.CreateIfAbsent(ctx, emp)
	require.NoError(t, err)
	assert.Equal(t, "emp-existing", stored.ID)
	assert.Equal(t, "Erika M.", stored.Name)
	assert.Nil(t, stored.DepartmentID)
	mockDB.ExpectationsWereMet(t)
}

func TestEmployeeRepository_GetByUserID_NotFound(t *testing.T) {
	ctx, tenantID := mockTenantContext()
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewEmployeeRepository(mockDB.Database())

	mockDB.ExpectTenantBegin(tenantID)
	mockDB.ExpectQuery("FROM employees WHERE user_id = $1").
		WithArgs("ghost").
		WillReturnRows(testutil.MockRows(employeeCols...))
	mockDB.ExpectRollback()

	_, err := repo.GetByUserID(ctx, "ghost")
	assert.True(t, errors.IsNotFound(err))
	mockDB.ExpectationsWereMet(t)
}

func TestEmployeeRepository_GetOrCreateDepartment(t *testing.T) {
	ctx, tenantID := mockTenantContext()
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	repo := repository.NewEmployeeRepository(mockDB.Database())

	mockDB.ExpectTenantQuery(tenantID, "INSERT INTO departments (name) VALUES ($1)",
		testutil.MockRows("id", "tenant_id", "name", "created_at").
			AddRow("dept-1", tenantID, "Management", time.Now()))

	dept, err := repo.GetOrCreateDepartment(ctx, "Management")
	require.NoError(t, err)
	assert.Equal(t, "dept-1", dept.ID)
	assert.Equal(t, "Management", dept.Name)
	mockDB.ExpectationsWereMet(t)
}

func TestUserCacheRepository(t *testing.T) {
	ctx, tenantID := mockTenantContext()
	created := time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)

	t.Run("upsert", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()
		repo := repository.NewUserCacheRepository(mockDB.Database())

		mockDB.ExpectTenantBegin(tenantID)
		mockDB.ExpectExec("INSERT INTO user_cache").
			WithArgs("user-1", "Ada", "ada@example.com", true).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mockDB.ExpectCommit()

		err := repo.Upsert(ctx, &actor.CachedUser{UserID: "user-1", Name: "Ada", Email: "ada@example.com", IsAdmin: true})
		require.NoError(t, err)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("first admin", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()
		repo := repository.NewUserCacheRepository(mockDB.Database())

		mockDB.ExpectTenantQuery(tenantID, "ORDER BY created_at, user_id",
			testutil.MockRows("user_id", "tenant_id", "name", "email", "is_admin", "created_at", "updated_at").
				AddRow("admin-1", tenantID, "Ada", "ada@example.com", true, created, created))

		admin, err := repo.FirstAdmin(ctx)
		require.NoError(t, err)
		assert.Equal(t, "admin-1", admin.UserID)
		assert.True(t, admin.IsAdmin)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("no admin yet", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()
		repo := repository.NewUserCacheRepository(mockDB.Database())

		mockDB.ExpectTenantBegin(tenantID)
		mockDB.ExpectQuery("FROM user_cache WHERE is_admin").
			WillReturnRows(testutil.MockRows("user_id", "tenant_id", "name", "email", "is_admin", "created_at", "updated_at"))
		mockDB.ExpectRollback()

		_, err := repo.FirstAdmin(ctx)
		assert.True(t, errors.IsNotFound(err))
		mockDB.ExpectationsWereMet(t)
	})
}
