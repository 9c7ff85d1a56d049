package outbox

import (
	"encoding/json"
	"time"

	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Message is a donation event waiting in the outbox to be relayed to Kafka
type Message struct {
	ID            int64               `json:"id"`
	DonationID    uuid.UUID           `json:"donation_id"`
	EventType     shared.EventType    `json:"event_type"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage encodes event as a PENDING message
func NewMessage(event shared.DonationEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		DonationID: event.DonationID,
		EventType:  event.EventType,
		Payload:    payload,
		Status:     shared.OutboxStatusPending,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// FinalAttempt reports whether a failure now would use up the last of maxAttempts
func (m *Message) FinalAttempt(maxAttempts int) bool {
	return m.Attempts+1 >= maxAttempts
}

// DonationEvent decodes the payload
func (m *Message) DonationEvent() (*shared.DonationEvent, error) {
	var event shared.DonationEvent
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
