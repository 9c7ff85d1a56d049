package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/eco-fund-ledger/internal/domain/donation"
	"github.com/eco-fund-ledger/internal/domain/outbox"
	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/eco-fund-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const donationColumns = `id, donor_id, amount, currency, status, idempotency_key, correlation_id, created_at`

// CreateDonation inserts the donation, credits the donor account, opens its distribution
// row and writes the donation.recorded outbox event in one transaction.
func (s *LedgerStore) CreateDonation(ctx context.Context, d *donation.Donation) error {
	if d.Amount <= 0 {
		return shared.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	insertQuery := `
		INSERT INTO donations (id, donor_id, amount, currency, status, idempotency_key, correlation_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id
	`
	creditQuery := `
		INSERT INTO donor_accounts (donor_id, total_donated, unallocated, created_at, updated_at, last_donation_at)
		VALUES ($1, $2, $2, $3, $3, $3)
		ON CONFLICT (donor_id) DO UPDATE
		SET total_donated = donor_accounts.total_donated + EXCLUDED.total_donated,
			unallocated = donor_accounts.unallocated + EXCLUDED.unallocated,
			updated_at = EXCLUDED.updated_at,
			last_donation_at = GREATEST(donor_accounts.last_donation_at, EXCLUDED.last_donation_at)
	`
	openQuery := `
		INSERT INTO distributions (donation_id, state, attempts, created_at, updated_at)
		VALUES ($1, $2, 0, $3, $3)
	`

	err := persistence.ExecuteTx(ctx, s.db, func(tx pgx.Tx) error {
		var id uuid.UUID
		err := tx.QueryRow(ctx, insertQuery,
			d.ID,
			d.DonorID,
			d.Amount,
			d.Currency,
			d.Status,
			nullableString(d.IdempotencyKey),
			d.CorrelationID,
			d.CreatedAt,
		).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			existingID, lookupErr := donationIDByKey(ctx, tx, d.IdempotencyKey)
			if lookupErr != nil {
				return lookupErr
			}
			return donation.ErrDuplicateDonation{IdempotencyKey: d.IdempotencyKey, ExistingID: existingID}
		}
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, creditQuery, d.DonorID, d.Amount, d.CreatedAt); err != nil {
			return fmt.Errorf("credit donor account: %w", err)
		}

		// An unplanned row keeps the donation visible to the reconciler until a plan lands
		if _, err := tx.Exec(ctx, openQuery, d.ID, shared.DistributionStateCreated, d.CreatedAt); err != nil {
			return fmt.Errorf("open distribution: %w", err)
		}

		message, err := outbox.NewMessage(d.Event())
		if err != nil {
			return fmt.Errorf("build outbox message: %w", err)
		}
		return s.outbox.WithTx(tx).Create(ctx, message)
	})
	if err != nil {
		return s.fail("create donation", err, "donation_id", d.ID.String(), "donor_id", d.DonorID)
	}

	return nil
}

func donationIDByKey(ctx context.Context, q persistence.Querier, key string) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.QueryRow(ctx, `SELECT id FROM donations WHERE idempotency_key = $1`, key).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup donation by idempotency key: %w", err)
	}
	return id, nil
}

// GetDonation retrieves a donation by id
func (s *LedgerStore) GetDonation(ctx context.Context, id uuid.UUID) (*donation.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = $1`

	d, err := scanDonation(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFoundError{Entity: "donation", ID: id.String()}
		}
		return nil, s.fail("get donation", err, "donation_id", id.String())
	}

	return d, nil
}

// ListDonationsByDonor returns the donor's full donation history, oldest first
func (s *LedgerStore) ListDonationsByDonor(ctx context.Context, donorID string) ([]*donation.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE donor_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := s.db.Query(ctx, query, donorID)
	if err != nil {
		return nil, s.fail("list donations", err, "donor_id", donorID)
	}
	defer rows.Close()

	var donations []*donation.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, s.fail("scan donation", err, "donor_id", donorID)
		}
		donations = append(donations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list donations", err, "donor_id", donorID)
	}

	return donations, nil
}

func scanDonation(row scanner) (*donation.Donation, error) {
	var d donation.Donation
	var key *string
	err := row.Scan(
		&d.ID,
		&d.DonorID,
		&d.Amount,
		&d.Currency,
		&d.Status,
		&key,
		&d.CorrelationID,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.IdempotencyKey = derefString(key)
	return &d, nil
}
