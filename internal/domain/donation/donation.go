package donation

import (
	"strings"
	"time"

	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	maxDonorIDLength        = 128
	maxIdempotencyKeyLength = 128
)

// Donation is an immutable record of a settled transfer into the fund
type Donation struct {
	ID             uuid.UUID             `json:"id"`
	DonorID        string                `json:"donor_id"`
	Amount         int64                 `json:"amount"` // Stored in minor units
	Currency       string                `json:"currency"`
	Status         shared.DonationStatus `json:"status"`
	IdempotencyKey string                `json:"idempotency_key,omitempty"`
	CorrelationID  string                `json:"correlation_id,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// NewDonation validates the input and builds a donation with a fresh id.
// An empty currency falls back to shared.DefaultCurrency and an empty status to completed.
func NewDonation(donorID string, amount int64, currency string, status shared.DonationStatus, idempotencyKey string) (*Donation, error) {
	donorID = strings.TrimSpace(donorID)
	if donorID == "" {
		return nil, shared.ValidationError{Field: "userId", Reason: "is required"}
	}
	if len(donorID) > maxDonorIDLength {
		return nil, shared.ValidationError{Field: "userId", Reason: "is too long"}
	}
	if amount <= 0 {
		return nil, shared.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	currency, err := NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	if status == "" {
		status = shared.DonationStatusCompleted
	}
	if status != shared.DonationStatusCompleted && status != shared.DonationStatusPending {
		return nil, shared.ValidationError{Field: "status", Reason: "must be pending or completed"}
	}

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if len(idempotencyKey) > maxIdempotencyKeyLength {
		return nil, shared.ValidationError{Field: "idempotencyKey", Reason: "is too long"}
	}

	return &Donation{
		ID:             uuid.New(),
		DonorID:        donorID,
		Amount:         amount,
		Currency:       currency,
		Status:         status,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// NormalizeCurrency upper-cases a 3-letter code, defaulting an empty one
func NormalizeCurrency(currency string) (string, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return shared.DefaultCurrency, nil
	}
	if len(currency) != 3 {
		return "", shared.ValidationError{Field: "currency", Reason: "must be a 3-letter code"}
	}
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return "", shared.ValidationError{Field: "currency", Reason: "must be a 3-letter code"}
		}
	}
	return currency, nil
}

// Event builds the outbox payload announcing this donation
func (d *Donation) Event() shared.DonationEvent {
	return shared.DonationEvent{
		EventType:      shared.EventTypeDonationRecorded,
		DonationID:     d.ID,
		DonorID:        d.DonorID,
		Amount:         d.Amount,
		Currency:       d.Currency,
		Status:         d.Status,
		IdempotencyKey: d.IdempotencyKey,
		CorrelationID:  d.CorrelationID,
		Timestamp:      d.CreatedAt,
	}
}

// ErrDuplicateDonation indicates the idempotency key was already used.
// ExistingID names the donation that owns the key.
type ErrDuplicateDonation struct {
	IdempotencyKey string
	ExistingID     uuid.UUID
}

func (e ErrDuplicateDonation) Error() string {
	return "donation with idempotency key already exists: " + e.IdempotencyKey
}

// Is implements the errors.Is interface for ErrDuplicateDonation
func (e ErrDuplicateDonation) Is(target error) bool {
	t, ok := target.(ErrDuplicateDonation)
	if !ok {
		return false
	}
	return t.IdempotencyKey == "" || t.IdempotencyKey == e.IdempotencyKey
}
