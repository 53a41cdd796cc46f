// Package tenant carries the caller's tenant through request contexts.
package tenant

import (
	"context"
	"errors"
)

// ErrNoTenantInContext is returned when tenant context is missing
var ErrNoTenantInContext = errors.New("no tenant in context")

type contextKey struct{}

// Info identifies a tenant. Slug is informational and may be empty.
type Info struct {
	ID   string
	Slug string
}

// WithTenantContext stores the tenant from a verified token.
func WithTenantContext(ctx context.Context, id, slug string) context.Context {
	return context.WithValue(ctx, contextKey{}, Info{ID: id, Slug: slug})
}

// WithTenantID stores a tenant known only by id, as in event consumers and
// the admin CLI.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return WithTenantContext(ctx, tenantID, "")
}

// FromContext returns the tenant stored in ctx.
func FromContext(ctx context.Context) (Info, bool) {
	info, ok := ctx.Value(contextKey{}).(Info)
	return info, ok && info.ID != ""
}

// TenantID returns the id repositories bind to the row-level security
// setting of each transaction.
func TenantID(ctx context.Context) (string, error) {
	info, ok := FromContext(ctx)
	if !ok {
		return "", ErrNoTenantInContext
	}
	return info.ID, nil
}

// MustTenantID is TenantID for code paths where a missing tenant is a
// programming error.
func MustTenantID(ctx context.Context) string {
	id, err := TenantID(ctx)
	if err != nil {
		panic("tenant ID not found in context")
	}
	return id
}
