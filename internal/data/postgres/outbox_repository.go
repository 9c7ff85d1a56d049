package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eco-fund-ledger/internal/domain/outbox"
	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/eco-fund-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const outboxColumns = `id, donation_id, event_type, payload, status, attempts, created_at, last_attempt_at`

// OutboxRepository stores donation events in the donation_outbox table. Bound to a
// transaction through WithTx, the event commits or rolls back with the donation row.
type OutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewOutboxRepository(logger *slog.Logger, db *persistence.PostgresDB) outbox.Repository {
	return &OutboxRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *OutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return &OutboxRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts the message and fills in its generated id
func (r *OutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	err := r.querier.QueryRow(ctx, `
		INSERT INTO donation_outbox (donation_id, event_type, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		message.DonationID,
		message.EventType,
		message.Payload,
		message.Status,
		message.Attempts,
		message.CreatedAt,
	).Scan(&message.ID)
	if err != nil {
		r.logger.Error("Failed to write donation event to outbox", "donation_id", message.DonationID.String(), "error", err)
		return fmt.Errorf("failed to create outbox message: %w", err)
	}
	return nil
}

// GetPending returns up to limit PENDING messages, oldest first
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	rows, err := r.querier.Query(ctx,
		`SELECT `+outboxColumns+` FROM donation_outbox
		WHERE status = $1
		ORDER BY id ASC
		LIMIT $2`,
		shared.OutboxStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	defer rows.Close()

	var messages []*outbox.Message
	for rows.Next() {
		message, err := scanOutboxMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over outbox messages: %w", err)
	}

	return messages, nil
}

func (r *OutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	return r.touch(ctx, "update outbox message status", id,
		`UPDATE donation_outbox SET status = $2, last_attempt_at = $3 WHERE id = $1`, status)
}

func (r *OutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	return r.touch(ctx, "increment outbox message attempts", id,
		`UPDATE donation_outbox SET attempts = attempts + 1, last_attempt_at = $2 WHERE id = $1`)
}

// touch runs a single-row update keyed by id, stamping last_attempt_at as the last argument
func (r *OutboxRepository) touch(ctx context.Context, op string, id int64, query string, args ...any) error {
	args = append([]any{id}, args...)
	args = append(args, time.Now().UTC())

	result, err := r.querier.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Outbox update failed", "op", op, "outbox_id", id, "error", err)
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if result.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}

func (r *OutboxRepository) GetByDonationID(ctx context.Context, donationID uuid.UUID) (*outbox.Message, error) {
	message, err := scanOutboxMessage(r.querier.QueryRow(ctx,
		`SELECT `+outboxColumns+` FROM donation_outbox WHERE donation_id = $1`, donationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, outbox.ErrMessageNotFound{DonationID: donationID}
		}
		return nil, fmt.Errorf("failed to get outbox message for donation %s: %w", donationID, err)
	}
	return message, nil
}

func scanOutboxMessage(row scanner) (*outbox.Message, error) {
	var m outbox.Message
	if err := row.Scan(
		&m.ID,
		&m.DonationID,
		&m.EventType,
		&m.Payload,
		&m.Status,
		&m.Attempts,
		&m.CreatedAt,
		&m.LastAttemptAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
