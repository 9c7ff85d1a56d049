package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eco-fund-ledger/internal/domain/donation"
	"github.com/eco-fund-ledger/internal/domain/shared"
)

// UpsertDonorContribution adds delta to the donor's contribution for projectID,
// drawing down unallocated funds first. The account is created when absent.
func (s *LedgerStore) UpsertDonorContribution(ctx context.Context, donorID, projectID string, delta int64) (*donation.DonorAccount, error) {
	if delta < 0 {
		return nil, shared.ValidationError{Field: "delta", Reason: "must not be negative"}
	}

	var account *donation.DonorAccount
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := applyContribution(ctx, tx, donorID, projectID, delta, s.now()); err != nil {
			return err
		}
		var err error
		account, err = getDonorAccount(ctx, tx, donorID)
		return err
	})
	if err != nil {
		return nil, s.fail("upsert donor contribution", err, "donor_id", donorID, "project_id", projectID)
	}

	return account, nil
}

func applyContribution(ctx context.Context, q querier, donorID, projectID string, delta int64, now time.Time) error {
	ensureQuery := `
		INSERT INTO donor_accounts (donor_id, total_donated, unallocated, created_at, updated_at)
		VALUES (?1, 0, 0, ?2, ?2)
		ON CONFLICT (donor_id) DO NOTHING
	`
	drawQuery := `
		UPDATE donor_accounts
		SET total_donated = total_donated + MAX(?2 - unallocated, 0),
			unallocated = MAX(unallocated - ?2, 0),
			updated_at = ?3
		WHERE donor_id = ?1
	`
	contributionQuery := `
		INSERT INTO donor_contributions (donor_id, project_id, amount)
		VALUES (?1, ?2, ?3)
		ON CONFLICT (donor_id, project_id) DO UPDATE
		SET amount = amount + excluded.amount
	`

	ms := toMillis(now)
	if _, err := q.ExecContext(ctx, ensureQuery, donorID, ms); err != nil {
		return fmt.Errorf("ensure donor account: %w", err)
	}
	if _, err := q.ExecContext(ctx, drawQuery, donorID, delta, ms); err != nil {
		return fmt.Errorf("draw unallocated funds: %w", err)
	}
	if _, err := q.ExecContext(ctx, contributionQuery, donorID, projectID, delta); err != nil {
		if isForeignKeyViolation(err) {
			return shared.NotFoundError{Entity: "project", ID: projectID}
		}
		return fmt.Errorf("add project contribution: %w", err)
	}
	return nil
}

// GetDonorAccount returns the donor's account, or nil when the donor never gave
func (s *LedgerStore) GetDonorAccount(ctx context.Context, donorID string) (*donation.DonorAccount, error) {
	account, err := getDonorAccount(ctx, s.db, donorID)
	if err != nil {
		return nil, s.fail("get donor account", err, "donor_id", donorID)
	}
	return account, nil
}

func getDonorAccount(ctx context.Context, q querier, donorID string) (*donation.DonorAccount, error) {
	accountQuery := `
		SELECT donor_id, total_donated, unallocated, created_at, updated_at, last_donation_at
		FROM donor_accounts
		WHERE donor_id = ?1
	`
	contributionsQuery := `
		SELECT project_id, amount
		FROM donor_contributions
		WHERE donor_id = ?1
		ORDER BY project_id ASC
	`

	var (
		account              donation.DonorAccount
		createdAt, updatedAt int64
		lastDonationAt       sql.NullInt64
	)
	err := q.QueryRowContext(ctx, accountQuery, donorID).Scan(
		&account.DonorID,
		&account.TotalDonated,
		&account.Unallocated,
		&createdAt,
		&updatedAt,
		&lastDonationAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	account.CreatedAt = fromMillis(createdAt)
	account.UpdatedAt = fromMillis(updatedAt)
	account.LastDonationAt = fromNullMillis(lastDonationAt)

	rows, err := q.QueryContext(ctx, contributionsQuery, donorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	account.ProjectContributions = make(map[string]int64)
	for rows.Next() {
		var projectID string
		var amount int64
		if err := rows.Scan(&projectID, &amount); err != nil {
			return nil, err
		}
		account.ProjectContributions[projectID] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &account, nil
}
