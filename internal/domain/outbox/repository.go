package outbox

import (
	"context"
	"strconv"

	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository persists donation events until the relay has published them
type Repository interface {
	Create(ctx context.Context, message *Message) error
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error
	IncrementAttempts(ctx context.Context, id int64) error
	GetByDonationID(ctx context.Context, donationID uuid.UUID) (*Message, error)
	// WithTx returns a repository writing through tx
	WithTx(tx pgx.Tx) Repository
}

// ErrMessageNotFound is returned when no message matches the id or donation
type ErrMessageNotFound struct {
	ID         int64
	DonationID uuid.UUID
}

func (e ErrMessageNotFound) Error() string {
	if e.DonationID != uuid.Nil {
		return "outbox message not found for donation " + e.DonationID.String()
	}
	return "outbox message not found: " + strconv.FormatInt(e.ID, 10)
}

// Is matches any ErrMessageNotFound when the target carries no identifiers
func (e ErrMessageNotFound) Is(target error) bool {
	t, ok := target.(ErrMessageNotFound)
	if !ok {
		return false
	}
	if t.ID == 0 && t.DonationID == uuid.Nil {
		return true
	}
	return e == t
}
