package testutil

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/punchclock/punchclock-backend/pkg/actor"
	"github.com/punchclock/punchclock-backend/pkg/tenant"
)

// TestTenant is a tenant created for a single test.
type TestTenant struct {
	ID   string
	Slug string
}

// NewTestTenant returns a tenant with a fresh id.
func NewTestTenant(name string) *TestTenant {
	return &TestTenant{
		ID:   uuid.New().String(),
		Slug: strings.ToLower(strings.ReplaceAll(name, " ", "-")),
	}
}

// WithTestTenant adds the tenant to ctx.
func WithTestTenant(ctx context.Context, t *TestTenant) context.Context {
	return tenant.WithTenantContext(ctx, t.ID, t.Slug)
}

// TestTenantContext returns a background context with a fresh tenant.
func TestTenantContext() context.Context {
	return WithTestTenant(context.Background(), NewTestTenant("test-tenant"))
}

// ActorContext returns ctx carrying a and a's tenant, the way the auth
// middleware leaves a request context.
func ActorContext(ctx context.Context, a *actor.Actor) context.Context {
	ctx = actor.WithActor(ctx, a)
	return tenant.WithTenantID(ctx, a.TenantID)
}
