package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event type constants for published events.
const (
	EventTypeSearchCompleted = "paper_finder.search_completed"
	EventTypeChatCompleted   = "paper_finder.chat_completed"
)

// Event is a domain event ready to be published to a message broker.
type Event struct {
	EventID      string
	EventVersion int
	EventType    string
	AggregateID  string
	Payload      []byte
	CreatedAt    time.Time
}

// NewEvent creates a new event with the given parameters.
// The payload is JSON-serialized automatically.
func NewEvent(eventType, aggregateID string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		EventID:      uuid.New().String(),
		EventVersion: 1,
		EventType:    eventType,
		AggregateID:  aggregateID,
		Payload:      payloadBytes,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// SearchCompletedPayload is the payload for search and chat completion events.
type SearchCompletedPayload struct {
	SearchID    uuid.UUID     `json:"search_id"`
	Query       string        `json:"query"`
	SearchTerms []string      `json:"search_terms"`
	PapersFound int           `json:"papers_found"`
	Sources     []string      `json:"sources"`
	Duration    time.Duration `json:"duration_ns"`
}
