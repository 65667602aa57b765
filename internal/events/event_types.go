package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	// EventDocumentChanged is published on the collection topic after any
	// successful write to a document in that collection.
	EventDocumentChanged EventType = "document_changed"

	EventTicketCreated     EventType = "ticket_created"
	EventProfileUpdated    EventType = "profile_updated"
	EventFeedbackSubmitted EventType = "feedback_submitted"
)

// TopicDomain carries the user facing domain events.
const TopicDomain = "domain"

// Event represents a change notification or a domain event.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Topic     string    `json:"topic"`
	Path      string    `json:"path,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh id.
func NewEvent(eventType EventType, topic string, now time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Topic:     topic,
		Timestamp: now,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNo string `json:"ticket_no"`
	Subject  string `json:"subject"`
}

// ProfileUpdatedPayload payload.
type ProfileUpdatedPayload struct {
	Username string `json:"username"`
}

// FeedbackSubmittedPayload payload.
type FeedbackSubmittedPayload struct {
	Rating  int    `json:"rating"`
	Preview string `json:"preview"`
}
