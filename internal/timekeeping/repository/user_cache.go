package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/punchclock/punchclock-backend/pkg/actor"
	"github.com/punchclock/punchclock-backend/pkg/database"
)

const resourceUser = "user"

// UserCacheRepository handles user cache persistence
type UserCacheRepository struct {
	db *database.DB
}

// NewUserCacheRepository creates a new user cache repository
func NewUserCacheRepository(db *database.DB) *UserCacheRepository {
	return &UserCacheRepository{db: db}
}

// Upsert creates or updates a cached user. created_at is kept from the
// first insert so the first-admin order is stable.
func (r *UserCacheRepository) Upsert(ctx context.Context, user *actor.CachedUser) error {
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO user_cache (user_id, name, email, is_admin, updated_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (tenant_id, user_id)
			DO UPDATE SET name = $2, email = $3, is_admin = $4, updated_at = NOW()
		`
		_, err := tx.ExecContext(ctx, query, user.UserID, user.Name, user.Email, user.IsAdmin)
		return err
	})
	return mapErr(err, resourceUser)
}

// Get gets a cached user by ID
func (r *UserCacheRepository) Get(ctx context.Context, userID string) (*actor.CachedUser, error) {
	var user actor.CachedUser
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		query := `
			SELECT user_id, tenant_id, name, email, is_admin, created_at, updated_at
			FROM user_cache WHERE user_id = $1
		`
		return tx.GetContext(ctx, &user, query, userID)
	})
	if err != nil {
		return nil, mapErr(err, resourceUser)
	}
	return &user, nil
}

// Delete deletes a cached user
func (r *UserCacheRepository) Delete(ctx context.Context, userID string) error {
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM user_cache WHERE user_id = $1`, userID)
		return err
	})
	return mapErr(err, resourceUser)
}

// FirstAdmin returns the earliest cached admin of the tenant.
func (r *UserCacheRepository) FirstAdmin(ctx context.Context) (*actor.CachedUser, error) {
	var user actor.CachedUser
	err := r.db.WithTenant(ctx, func(tx *sqlx.Tx) error {
		query := `
			SELECT user_id, tenant_id, name, email, is_admin, created_at, updated_at
			FROM user_cache WHERE is_admin
			ORDER BY created_at, user_id
			LIMIT 1
		`
		return tx.GetContext(ctx, &user, query)
	})
	if err != nil {
		return nil, mapErr(err, resourceUser)
	}
	return &user, nil
}
