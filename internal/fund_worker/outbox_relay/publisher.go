package outbox_relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eco-fund-ledger/internal/domain/outbox"
	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/eco-fund-ledger/internal/platform/messaging/producers"
)

// Kafka headers attached to every relayed event
const (
	HeaderEventType     = "event_type"
	HeaderCorrelationID = "correlation_id"
)

// EventRelay publishes one outbox message to the donation topic
type EventRelay interface {
	Relay(ctx context.Context, message *outbox.Message) error
}

// KafkaEventRelay forwards outbox payloads to Kafka keyed by donation id, so all events
// of a donation land on the same partition
type KafkaEventRelay struct {
	outboxRepo outbox.Repository
	publisher  producers.EventPublisher
	logger     *slog.Logger
}

func NewKafkaEventRelay(
	outboxRepo outbox.Repository,
	publisher producers.EventPublisher,
	logger *slog.Logger,
) *KafkaEventRelay {
	return &KafkaEventRelay{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

// Relay publishes the message and marks it PROCESSED. A payload that cannot be decoded
// is parked as FAILED_TO_PUBLISH right away since retrying cannot fix it.
func (r *KafkaEventRelay) Relay(ctx context.Context, message *outbox.Message) error {
	event, err := message.DonationEvent()
	if err != nil {
		r.logger.Error("Failed to decode donation event from outbox payload",
			"outbox_id", message.ID, "donation_id", message.DonationID, "error", err,
		)
		if updateErr := r.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			r.logger.Error("Also failed to park undecodable outbox message", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("decode payload for outbox %d failed: %w", message.ID, err)
	}

	logger := r.logger
	if event.CorrelationID != "" {
		logger = r.logger.With("correlation_id", event.CorrelationID)
	}

	headers := map[string]string{HeaderEventType: string(message.EventType)}
	if event.CorrelationID != "" {
		headers[HeaderCorrelationID] = event.CorrelationID
	}

	if err := r.publisher.Publish(ctx, message.DonationID.String(), message.Payload, headers); err != nil {
		return fmt.Errorf("publish donation event %s: %w", message.DonationID, err)
	}

	if err := r.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to mark outbox message as PROCESSED",
			"outbox_id", message.ID, "donation_id", message.DonationID, "error", err,
		)
		return fmt.Errorf("event %s published, but failed to mark outbox %d as PROCESSED: %w", message.DonationID, message.ID, err)
	}

	logger.Debug("Relayed donation event", "outbox_id", message.ID, "donation_id", message.DonationID, "event_type", message.EventType)
	return nil
}
