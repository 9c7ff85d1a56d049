package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eco-fund-ledger/internal/domain/journal"
	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/eco-fund-ledger/internal/logger"
	"github.com/eco-fund-ledger/internal/platform/messaging/producers"
	"github.com/google/uuid"
)

// DonationEventHandler projects donation events from Kafka into the journal
type DonationEventHandler struct {
	journal journal.Repository
	dlq     producers.DeadLetterPublisher
	logger  *slog.Logger
}

// NewDonationEventHandler creates a new handler. dlq may be nil, in which case poison
// messages are left uncommitted.
func NewDonationEventHandler(
	log *slog.Logger,
	repo journal.Repository,
	dlq producers.DeadLetterPublisher,
) *DonationEventHandler {
	return &DonationEventHandler{
		journal: repo,
		dlq:     dlq,
		logger:  log,
	}
}

// HandleMessage writes one journal entry per donation. Redelivered events hit the unique
// donation index and are treated as done.
func (h *DonationEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event shared.DonationEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return h.deadLetter(ctx, key, value, fmt.Errorf("failed to unmarshal donation event: %w", err))
	}
	if event.DonationID == uuid.Nil {
		return h.deadLetter(ctx, key, value, errors.New("donation event has no donation id"))
	}

	if event.CorrelationID != "" {
		ctx = logger.WithCorrelationID(ctx, event.CorrelationID)
	}
	log := logger.FromContext(ctx, h.logger)

	if event.EventType != shared.EventTypeDonationRecorded {
		log.Warn("Skipping unknown donation event type", "event_type", event.EventType, "donation_id", event.DonationID)
		return nil
	}

	if err := h.journal.Create(ctx, journal.NewEntry(&event)); err != nil {
		if errors.Is(err, journal.ErrDuplicateEntry{}) {
			log.Info("Donation already journaled", "donation_id", event.DonationID)
			return nil
		}
		log.Error("Failed to journal donation", "donation_id", event.DonationID, "error", err)
		return fmt.Errorf("journaling donation %s failed: %w", event.DonationID, err)
	}

	log.Info("Journaled donation", "donation_id", event.DonationID, "donor_id", event.DonorID, "amount", event.Amount)
	return nil
}

// deadLetter parks an unprocessable message. Without a DLQ the error is returned so
// the offset stays uncommitted.
func (h *DonationEventHandler) deadLetter(ctx context.Context, key, value []byte, cause error) error {
	h.logger.Error("Unprocessable donation event", "error", cause, "message_key", string(key))

	if h.dlq == nil {
		return cause
	}
	if err := h.dlq.PublishToDLQ(ctx, string(key), value, cause.Error()); err != nil {
		h.logger.Error("Failed to publish message to DLQ", "dlq_error", err, "message_key", string(key))
		return cause
	}

	h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key))
	return nil
}
