// Package consumers keeps the local user cache in sync with the identity
// service's user events.
package consumers

import (
	"context"
	"strings"

	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/pkg/actor"
	"github.com/punchclock/punchclock-backend/pkg/auth"
	"github.com/punchclock/punchclock-backend/pkg/errors"
	"github.com/punchclock/punchclock-backend/pkg/logger"
	"github.com/punchclock/punchclock-backend/pkg/messaging"
	"github.com/punchclock/punchclock-backend/pkg/tenant"
)

// QueueName is the durable queue this service reads user events from.
const QueueName = "punchclock-service.user-events"

// UserCache is the subset of the user cache the consumer writes.
type UserCache interface {
	Upsert(ctx context.Context, user *actor.CachedUser) error
	Get(ctx context.Context, userID string) (*actor.CachedUser, error)
	Delete(ctx context.Context, userID string) error
}

// Provisioner creates the employee record of an account.
type Provisioner interface {
	ResolveOrProvision(ctx context.Context, a *actor.Actor) (*domain.Employee, error)
}

// UserEventHandler applies user events to the cache.
type UserEventHandler struct {
	users       UserCache
	provisioner Provisioner
	logger      *logger.Logger
}

// NewUserEventHandler creates a new user event handler
func NewUserEventHandler(users UserCache, provisioner Provisioner, log *logger.Logger) *UserEventHandler {
	return &UserEventHandler{users: users, provisioner: provisioner, logger: log}
}

// UserEventConsumer consumes user events
type UserEventConsumer struct {
	consumer *messaging.Consumer
	handler  *UserEventHandler
}

// NewUserEventConsumer declares the queue, binds it to the user exchange
// and registers the handlers.
func NewUserEventConsumer(rmq *messaging.RabbitMQ, handler *UserEventHandler, log *logger.Logger) (*UserEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, QueueName, log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeUserEvents, "user.#"); err != nil {
		return nil, err
	}

	handler.Register(consumer)

	return &UserEventConsumer{consumer: consumer, handler: handler}, nil
}

// Start starts consuming messages
func (c *UserEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

// Register attaches the handlers to consumer.
func (h *UserEventHandler) Register(consumer *messaging.Consumer) {
	consumer.RegisterHandler(messaging.EventUserCreated, h.HandleUserCreated)
	consumer.RegisterHandler(messaging.EventUserUpdated, h.HandleUserUpdated)
	consumer.RegisterHandler(messaging.EventUserDeleted, h.HandleUserDeleted)
}

// HandleUserCreated caches the new user. Admins also get their
// self-managed employee record right away.
func (h *UserEventHandler) HandleUserCreated(ctx context.Context, event *messaging.Event) error {
	var data messaging.UserCreatedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}
	if data.UserID == "" || data.TenantID == "" {
		h.logger.Warn().Str("event_id", event.ID).Msg("user created event without user or tenant, dropping")
		return nil
	}

	h.logger.Info().
		Str("user_id", data.UserID).
		Str("tenant_id", data.TenantID).
		Str("role", data.RoleName).
		Msg("received user created event")

	ctx = tenant.WithTenantID(ctx, data.TenantID)

	user := &actor.CachedUser{
		UserID:   data.UserID,
		TenantID: data.TenantID,
		Name:     data.FullName(),
		Email:    data.Email,
		IsAdmin:  auth.IsAdminRole(data.RoleName),
	}
	if err := h.users.Upsert(ctx, user); err != nil {
		return err
	}

	if !user.IsAdmin {
		return nil
	}

	a := user.ToActor()
	a.Role = data.RoleName
	if _, err := h.provisioner.ResolveOrProvision(ctx, a); err != nil {
		// The record is created on the admin's first request instead.
		h.logger.Error().Err(err).Str("user_id", data.UserID).Msg("failed to provision admin employee")
	}
	return nil
}

// HandleUserUpdated applies changed fields to a cached user. Users that
// were never cached are ignored.
func (h *UserEventHandler) HandleUserUpdated(ctx context.Context, event *messaging.Event) error {
	var data messaging.UserUpdatedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	h.logger.Info().
		Str("user_id", data.UserID).
		Msg("received user updated event")

	ctx = tenant.WithTenantID(ctx, data.TenantID)

	existing, err := h.users.Get(ctx, data.UserID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil
		}
		return err
	}

	if !applyUserChanges(existing, data.Fields) {
		return nil
	}
	return h.users.Upsert(ctx, existing)
}

// HandleUserDeleted drops the cached user. Employee records and their
// entries stay.
func (h *UserEventHandler) HandleUserDeleted(ctx context.Context, event *messaging.Event) error {
	var data messaging.UserDeletedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	h.logger.Info().
		Str("user_id", data.UserID).
		Msg("received user deleted event")

	ctx = tenant.WithTenantID(ctx, data.TenantID)

	if err := h.users.Delete(ctx, data.UserID); err != nil && !errors.IsNotFound(err) {
		return err
	}
	return nil
}

// applyUserChanges updates u from a {"field": {"from": .., "to": ..}} map
// and reports whether anything changed.
func applyUserChanges(u *actor.CachedUser, fields map[string]any) bool {
	changed := false

	first, last := splitName(u.Name)
	if v, ok := changedTo(fields, "first_name"); ok {
		first, changed = v, true
	}
	if v, ok := changedTo(fields, "last_name"); ok {
		last, changed = v, true
	}
	u.Name = strings.TrimSpace(first + " " + last)

	if v, ok := changedTo(fields, "email"); ok {
		u.Email, changed = v, true
	}
	if v, ok := changedTo(fields, "role_name"); ok {
		u.IsAdmin, changed = auth.IsAdminRole(v), true
	}
	return changed
}

func changedTo(fields map[string]any, name string) (string, bool) {
	change, ok := fields[name].(map[string]any)
	if !ok {
		return "", false
	}
	to, ok := change["to"].(string)
	return to, ok
}

func splitName(name string) (string, string) {
	first, last, _ := strings.Cut(name, " ")
	return first, last
}
