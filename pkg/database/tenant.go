package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/punchclock/punchclock-backend/pkg/errors"
	"github.com/punchclock/punchclock-backend/pkg/tenant"
)

// SetTenantQuery scopes row-level security to one tenant for the current
// transaction. set_config accepts bind parameters, SET LOCAL does not.
const SetTenantQuery = "SELECT set_config('app.current_tenant', $1, true)"

// WithTenant runs fn in a transaction bound to the tenant in ctx.
//
// Every table carries tenant_id with a policy of
// USING (tenant_id = current_setting('app.current_tenant')::uuid), and
// tenant_id defaults to the same setting, so queries inside fn neither
// filter nor insert tenant ids themselves. The setting is transaction-local
// and vanishes on commit or rollback, which keeps pooled connections clean.
func (db *DB) WithTenant(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return errors.Forbidden("missing tenant context")
	}

	return db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, SetTenantQuery, tenantID); err != nil {
			return fmt.Errorf("failed to set tenant %s: %w", tenantID, err)
		}
		return fn(tx)
	})
}
