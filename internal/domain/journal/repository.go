package journal

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages the donation journal with pagination support
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByDonationID(ctx context.Context, donationID uuid.UUID) (*Entry, error)
	List(ctx context.Context, limit, offset int) ([]*Entry, error)
	Count(ctx context.Context) (int64, error)
	ListByDonorID(ctx context.Context, donorID string, limit, offset int) ([]*Entry, error)
	CountByDonorID(ctx context.Context, donorID string) (int64, error)
}

// ErrEntryNotFound indicates missing journal entry
type ErrEntryNotFound struct {
	DonationID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "journal entry not found: " + e.DonationID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	// If the target DonationID is empty, consider it a match for any ErrEntryNotFound
	if t.DonationID == uuid.Nil {
		return true
	}
	return e.DonationID == t.DonationID
}

// ErrDuplicateEntry indicates the donation was already projected
type ErrDuplicateEntry struct {
	DonationID uuid.UUID
}

func (e ErrDuplicateEntry) Error() string {
	return "duplicate journal entry: " + e.DonationID.String()
}

// Is implements the errors.Is interface for ErrDuplicateEntry
func (e ErrDuplicateEntry) Is(target error) bool {
	t, ok := target.(ErrDuplicateEntry)
	if !ok {
		return false
	}
	if t.DonationID == uuid.Nil {
		return true
	}
	return e.DonationID == t.DonationID
}
