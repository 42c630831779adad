package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/ReviewInsights/pkg/logger"
)

// EnvelopeVersion is stamped on every envelope this package produces.
const EnvelopeVersion = 1

// Aggregate identifies the entity an event is about. Its ID doubles as the
// partition key.
type Aggregate struct {
	Type string
	ID   string
}

// Event is the JSON envelope written as the value of every message.
type Event struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Version       int             `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent encodes payload and wraps it for agg. The correlation ID carried
// by ctx, if any, is copied onto the envelope.
func NewEvent(ctx context.Context, eventType, source string, agg Aggregate, payload any) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return &Event{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		AggregateID:   agg.ID,
		AggregateType: agg.Type,
		Version:       EnvelopeVersion,
		Timestamp:     time.Now().UTC(),
		Source:        source,
		CorrelationID: logger.CorrelationIDFromContext(ctx),
		Data:          raw,
	}, nil
}

// Key is the message key for the envelope.
func (e *Event) Key() []byte {
	return []byte(e.AggregateID)
}
