package shared

import (
	"strconv"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each one is published after the matching mutation has
// been committed.
const (
	// Class events
	EventClassCreated EventType = "class.created"
	EventClassUpdated EventType = "class.updated"
	EventClassDeleted EventType = "class.deleted"

	// Student events
	EventStudentCreated      EventType = "student.created"
	EventStudentBatchCreated EventType = "student.batch_created"
	EventStudentUpdated      EventType = "student.updated"
	EventStudentDeleted      EventType = "student.deleted"
	EventStudentEnrolled     EventType = "student.enrolled"

	// Subject events
	EventSubjectCreated         EventType = "subject.created"
	EventSubjectUpdated         EventType = "subject.updated"
	EventSubjectDeleted         EventType = "subject.deleted"
	EventSubjectAssignedToClass EventType = "subject.assigned_to_class"

	// Task events
	EventTaskCreated         EventType = "task.created"
	EventTaskCompleted       EventType = "task.completed"
	EventTaskDeleted         EventType = "task.deleted"
	EventTaskAssignedToClass EventType = "task.assigned_to_class"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the entity that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler handles a published event.
type EventHandler func(event Event) error

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(event Event) error
}

// EntityEvent is the event emitted by every service mutation.
type EntityEvent struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	EntityID  int64                  `json:"entity_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEntityEvent creates an event for the entity with the given ID.
func NewEntityEvent(eventType EventType, entityID int64, data map[string]interface{}) *EntityEvent {
	return &EntityEvent{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		EntityID:  entityID,
		Data:      data,
	}
}

// EventType implements Event interface.
func (e *EntityEvent) EventType() EventType { return e.Type }

// OccurredAt implements Event interface.
func (e *EntityEvent) OccurredAt() time.Time { return e.Timestamp }

// AggregateID implements Event interface.
func (e *EntityEvent) AggregateID() string { return strconv.FormatInt(e.EntityID, 10) }

// Payload implements Event interface.
func (e *EntityEvent) Payload() map[string]interface{} {
	payload := make(map[string]interface{}, len(e.Data)+1)
	for k, v := range e.Data {
		payload[k] = v
	}
	payload["entity_id"] = e.EntityID
	return payload
}
