package shared

import (
	"time"

	"github.com/google/uuid"
)

// DonationEvent is the Kafka message emitted for every persisted donation
type DonationEvent struct {
	EventType      EventType      `json:"event_type"`
	DonationID     uuid.UUID      `json:"donation_id"`
	DonorID        string         `json:"donor_id"`
	Amount         int64          `json:"amount"` // Minor units
	Currency       string         `json:"currency"`
	Status         DonationStatus `json:"status"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
	CorrelationID  string         `json:"correlation_id"`
	Timestamp      time.Time      `json:"timestamp"`
}
