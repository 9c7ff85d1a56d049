package journal

import (
	"time"

	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Entry is the read-model copy of a donation, projected from the donation event stream
type Entry struct {
	DonationID     uuid.UUID             `json:"donation_id" bson:"donation_id"`
	DonorID        string                `json:"donor_id" bson:"donor_id"`
	Amount         int64                 `json:"amount" bson:"amount"` // Stored in minor units
	Currency       string                `json:"currency" bson:"currency"`
	Status         shared.DonationStatus `json:"status" bson:"status"`
	IdempotencyKey string                `json:"idempotency_key,omitempty" bson:"idempotency_key,omitempty"`
	CorrelationID  string                `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt      time.Time             `json:"created_at" bson:"created_at"`
	RecordedAt     time.Time             `json:"recorded_at" bson:"recorded_at"`
}

// NewEntry projects a donation event into a journal entry
func NewEntry(event *shared.DonationEvent) *Entry {
	return &Entry{
		DonationID:     event.DonationID,
		DonorID:        event.DonorID,
		Amount:         event.Amount,
		Currency:       event.Currency,
		Status:         event.Status,
		IdempotencyKey: event.IdempotencyKey,
		CorrelationID:  event.CorrelationID,
		CreatedAt:      event.Timestamp,
		RecordedAt:     time.Now().UTC(),
	}
}
