package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eco-fund-ledger/internal/domain/donation"
	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

const donationColumns = `id, donor_id, amount, currency, status, idempotency_key, correlation_id, created_at`

// CreateDonation inserts the donation, credits the donor account and opens its
// distribution row in one transaction.
// The embedded store has no outbox; the journal is fed only in postgres mode.
func (s *LedgerStore) CreateDonation(ctx context.Context, d *donation.Donation) error {
	if d.Amount <= 0 {
		return shared.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	insertQuery := `
		INSERT INTO donations (id, donor_id, amount, currency, status, idempotency_key, correlation_id, created_at)
		VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id
	`
	creditQuery := `
		INSERT INTO donor_accounts (donor_id, total_donated, unallocated, created_at, updated_at, last_donation_at)
		VALUES (?1, ?2, ?2, ?3, ?3, ?3)
		ON CONFLICT (donor_id) DO UPDATE
		SET total_donated = total_donated + excluded.total_donated,
			unallocated = unallocated + excluded.unallocated,
			updated_at = excluded.updated_at,
			last_donation_at = MAX(COALESCE(last_donation_at, 0), excluded.last_donation_at)
	`
	openQuery := `
		INSERT INTO distributions (donation_id, state, attempts, created_at, updated_at)
		VALUES (?1, ?2, 0, ?3, ?3)
	`

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var id string
		err := tx.QueryRowContext(ctx, insertQuery,
			d.ID.String(),
			d.DonorID,
			d.Amount,
			d.Currency,
			string(d.Status),
			nullableString(d.IdempotencyKey),
			d.CorrelationID,
			toMillis(d.CreatedAt),
		).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			existingID, lookupErr := donationIDByKey(ctx, tx, d.IdempotencyKey)
			if lookupErr != nil {
				return lookupErr
			}
			return donation.ErrDuplicateDonation{IdempotencyKey: d.IdempotencyKey, ExistingID: existingID}
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, creditQuery, d.DonorID, d.Amount, toMillis(d.CreatedAt)); err != nil {
			return fmt.Errorf("credit donor account: %w", err)
		}
		if _, err := tx.ExecContext(ctx, openQuery, d.ID.String(), string(shared.DistributionStateCreated), toMillis(d.CreatedAt)); err != nil {
			return fmt.Errorf("open distribution: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.fail("create donation", err, "donation_id", d.ID.String(), "donor_id", d.DonorID)
	}

	return nil
}

func donationIDByKey(ctx context.Context, q querier, key string) (uuid.UUID, error) {
	var id string
	if err := q.QueryRowContext(ctx, `SELECT id FROM donations WHERE idempotency_key = ?1`, key).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("lookup donation by idempotency key: %w", err)
	}
	return uuid.Parse(id)
}

// GetDonation retrieves a donation by id
func (s *LedgerStore) GetDonation(ctx context.Context, id uuid.UUID) (*donation.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = ?1`

	d, err := scanDonation(s.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.NotFoundError{Entity: "donation", ID: id.String()}
		}
		return nil, s.fail("get donation", err, "donation_id", id.String())
	}

	return d, nil
}

// ListDonationsByDonor returns the donor's full donation history, oldest first
func (s *LedgerStore) ListDonationsByDonor(ctx context.Context, donorID string) ([]*donation.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE donor_id = ?1 ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, donorID)
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
	var (
		d         donation.Donation
		id        string
		status    string
		key       sql.NullString
		createdAt int64
	)
	err := row.Scan(&id, &d.DonorID, &d.Amount, &d.Currency, &status, &key, &d.CorrelationID, &createdAt)
	if err != nil {
		return nil, err
	}
	if d.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse donation id: %w", err)
	}
	d.Status = shared.DonationStatus(status)
	d.IdempotencyKey = key.String
	d.CreatedAt = fromMillis(createdAt)
	return &d, nil
}
