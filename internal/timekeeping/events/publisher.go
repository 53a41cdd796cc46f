package events

import (
	"context"

	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/pkg/actor"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/punchclock/punchclock-backend/pkg/logger"
	"github.com/punchclock/punchclock-backend/pkg/messaging"
	"github.com/punchclock/punchclock-backend/pkg/tenant"
)

// Publisher publishes timekeeping events. Failures are logged and never
// returned; a nil inner publisher makes every method a no-op.
type Publisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewPublisher wraps an event publisher. pub may be nil when messaging is
// disabled.
func NewPublisher(pub messaging.EventPublisher, log *logger.Logger) *Publisher {
	return &Publisher{publisher: pub, logger: log}
}

// NewRabbitPublisher creates a publisher on the timekeeping exchange.
func NewRabbitPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*Publisher, error) {
	pub, err := messaging.NewPublisher(rmq, messaging.ExchangeTimekeepingEvents, log)
	if err != nil {
		return nil, err
	}
	return NewPublisher(pub, log), nil
}

func (p *Publisher) publish(ctx context.Context, eventType string, data interface{}) {
	if p == nil || p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}

func entryEvent(ctx context.Context, a *actor.Actor, e *domain.TimeEntry) messaging.EntryEvent {
	tenantID, _ := tenant.TenantID(ctx)
	return messaging.EntryEvent{
		TenantID:     tenantID,
		EntryID:      e.ID,
		EmployeeID:   e.EmployeeID,
		ActorID:      actorID(a),
		Date:         e.Date.String(),
		SegmentIndex: e.SegmentIndex,
		Status:       string(e.Status),
		TotalHours:   e.TotalHours.String(),
		Verified:     e.SessionVerified,
	}
}

func actorID(a *actor.Actor) string {
	if a == nil {
		return ""
	}
	return a.ID
}

// EntryPunched publishes a punch
func (p *Publisher) EntryPunched(ctx context.Context, a *actor.Actor, e *domain.TimeEntry) {
	p.publish(ctx, messaging.EventEntryPunched, entryEvent(ctx, a, e))
}

// EntryCreated publishes a manual entry creation
func (p *Publisher) EntryCreated(ctx context.Context, a *actor.Actor, e *domain.TimeEntry) {
	p.publish(ctx, messaging.EventEntryCreated, entryEvent(ctx, a, e))
}

// EntryUpdated publishes an entry update
func (p *Publisher) EntryUpdated(ctx context.Context, a *actor.Actor, e *domain.TimeEntry) {
	p.publish(ctx, messaging.EventEntryUpdated, entryEvent(ctx, a, e))
}

// EntryDeleted publishes an entry deletion
func (p *Publisher) EntryDeleted(ctx context.Context, a *actor.Actor, e *domain.TimeEntry) {
	p.publish(ctx, messaging.EventEntryDeleted, entryEvent(ctx, a, e))
}

// StatusChanged publishes a status transition of one entry.
func (p *Publisher) StatusChanged(ctx context.Context, a *actor.Actor, e *domain.TimeEntry, old domain.Status) {
	tenantID, _ := tenant.TenantID(ctx)
	p.publish(ctx, messaging.EventEntryStatusChanged, messaging.EntryStatusChangedEvent{
		TenantID:   tenantID,
		EntryID:    e.ID,
		EmployeeID: e.EmployeeID,
		ActorID:    actorID(a),
		OldStatus:  string(old),
		NewStatus:  string(e.Status),
	})
}

func (p *Publisher) bulk(ctx context.Context, eventType string, a *actor.Actor, date clock.Date, employeeID string, count int) {
	tenantID, _ := tenant.TenantID(ctx)
	data := messaging.EntriesBulkEvent{
		TenantID: tenantID,
		ActorID:  actorID(a),
		Date:     date.String(),
		Count:    count,
	}
	if employeeID != "" {
		data.EmployeeID = &employeeID
	}
	p.publish(ctx, eventType, data)
}

// EntriesApproved publishes a bulk approval
func (p *Publisher) EntriesApproved(ctx context.Context, a *actor.Actor, date clock.Date, count int) {
	p.bulk(ctx, messaging.EventEntriesApproved, a, date, "", count)
}

// EntriesCleared publishes a clear
func (p *Publisher) EntriesCleared(ctx context.Context, a *actor.Actor, f domain.ClearFilter, count int) {
	p.bulk(ctx, messaging.EventEntriesCleared, a, f.Date, f.EmployeeID, count)
}

// EntriesRestored publishes an undo
func (p *Publisher) EntriesRestored(ctx context.Context, a *actor.Actor, date clock.Date, count int) {
	p.bulk(ctx, messaging.EventEntriesRestored, a, date, "", count)
}
