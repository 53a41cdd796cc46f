package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// User events, published by the identity service
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"

	// Time entry events
	EventEntryPunched       = "timekeeping.entry.punched"
	EventEntryCreated       = "timekeeping.entry.created"
	EventEntryUpdated       = "timekeeping.entry.updated"
	EventEntryDeleted       = "timekeeping.entry.deleted"
	EventEntryStatusChanged = "timekeeping.entry.status_changed"

	// Bulk events
	EventEntriesApproved = "timekeeping.entries.approved"
	EventEntriesCleared  = "timekeeping.entries.cleared"
	EventEntriesRestored = "timekeeping.entries.restored"
)

// Exchange names
const (
	ExchangeUserEvents        = "user.events"
	ExchangeTimekeepingEvents = "timekeeping.events"
)

// EventPublisher is satisfied by Publisher and by test doubles.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// User Events

// UserCreatedEvent is published when a user is created
type UserCreatedEvent struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	RoleName  string `json:"role_name"`
	TenantID  string `json:"tenant_id"`
}

// FullName returns the user's full name
func (e *UserCreatedEvent) FullName() string {
	switch {
	case e.FirstName == "":
		return e.LastName
	case e.LastName == "":
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// UserUpdatedEvent is published when a user is updated
type UserUpdatedEvent struct {
	UserID   string         `json:"user_id"`
	TenantID string         `json:"tenant_id"`
	Fields   map[string]any `json:"fields"` // Changed fields
}

// UserDeletedEvent is published when a user is deleted
type UserDeletedEvent struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	TenantID string `json:"tenant_id"`
}

// Time Entry Events

// EntryEvent is published for changes to a single time entry.
type EntryEvent struct {
	TenantID     string `json:"tenant_id"`
	EntryID      string `json:"entry_id"`
	EmployeeID   string `json:"employee_id"`
	ActorID      string `json:"actor_id"`
	Date         string `json:"date"`
	SegmentIndex int    `json:"segment_index"`
	Status       string `json:"status"`
	TotalHours   string `json:"total_hours"`
	Verified     bool   `json:"session_verified"`
}

// EntryStatusChangedEvent is published when an entry moves between statuses.
type EntryStatusChangedEvent struct {
	TenantID   string `json:"tenant_id"`
	EntryID    string `json:"entry_id"`
	EmployeeID string `json:"employee_id"`
	ActorID    string `json:"actor_id"`
	OldStatus  string `json:"old_status"`
	NewStatus  string `json:"new_status"`
}

// EntriesBulkEvent is published for approve-all, clear and undo.
type EntriesBulkEvent struct {
	TenantID   string  `json:"tenant_id"`
	ActorID    string  `json:"actor_id"`
	Date       string  `json:"date"`
	EmployeeID *string `json:"employee_id,omitempty"`
	Count      int     `json:"count"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.NewString()
}
