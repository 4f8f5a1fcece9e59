package analytics

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types written to the outcome outbox.
const (
	EventTypeAnswerOutcome = "AnswerOutcome"
	EventTypeGameOutcome   = "GameOutcome"
)

// OutboxEvent is one recorded outcome awaiting relay to the message bus.
type OutboxEvent struct {
	ID        uuid.UUID       `json:"id"`
	RoomCode  string          `json:"room_code"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}
