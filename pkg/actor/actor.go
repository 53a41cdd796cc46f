// Package actor identifies the user performing an action.
//
// The auth middleware builds an Actor from the verified access token; the
// user-event consumer keeps a CachedUser per user so services can resolve
// names and admin flags without calling the identity provider.
package actor

import (
	"context"
	"fmt"
	"time"
)

// Actor represents the authenticated caller.
type Actor struct {
	// ID is the user id issued by the identity provider.
	ID string `json:"id"`

	Name  string `json:"name"`
	Email string `json:"email"`

	// TenantID is the tenant the actor belongs to
	TenantID string `json:"tenant_id"`

	// Role is the raw role claim, kept for logging.
	Role string `json:"role,omitempty"`

	IsAdmin bool `json:"is_admin"`

	// SessionID identifies the login session. Clear snapshots are keyed by it.
	SessionID string `json:"-"`

	// ExpiresAt is when the session token stops being valid. Zero means unknown.
	ExpiresAt time.Time `json:"-"`
}

// DisplayName returns the name, falling back to the email.
func (a *Actor) DisplayName() string {
	if a == nil {
		return ""
	}
	if a.Name != "" {
		return a.Name
	}
	return a.Email
}

// String returns a string representation of the actor for logging
func (a *Actor) String() string {
	if a == nil {
		return "system"
	}
	return fmt.Sprintf("%s (%s)", a.DisplayName(), a.ID)
}

// contextKey is the type for context keys to avoid collisions
type contextKey string

const actorContextKey contextKey = "actor"

// FromContext retrieves the Actor from the context.
// Returns nil if no actor is present (e.g., system operations).
func FromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	a, ok := ctx.Value(actorContextKey).(*Actor)
	if !ok {
		return nil
	}
	return a
}

// WithActor returns a new context with the Actor attached.
func WithActor(ctx context.Context, a *Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey, a)
}

// CachedUser is the locally synced copy of a user from the identity service.
type CachedUser struct {
	UserID    string    `json:"user_id" db:"user_id"`
	TenantID  string    `json:"tenant_id" db:"tenant_id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	IsAdmin   bool      `json:"is_admin" db:"is_admin"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ToActor converts a cached user to an Actor without session data.
func (u *CachedUser) ToActor() *Actor {
	if u == nil {
		return nil
	}
	return &Actor{
		ID:       u.UserID,
		Name:     u.Name,
		Email:    u.Email,
		TenantID: u.TenantID,
		IsAdmin:  u.IsAdmin,
	}
}

// FromActor builds the cache row for a or returns nil for a nil actor.
func FromActor(a *Actor) *CachedUser {
	if a == nil {
		return nil
	}
	return &CachedUser{
		UserID:   a.ID,
		TenantID: a.TenantID,
		Name:     a.DisplayName(),
		Email:    a.Email,
		IsAdmin:  a.IsAdmin,
	}
}
