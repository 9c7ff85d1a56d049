package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/eco-fund-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SaveDistributionPlan persists plan unless a plan already exists for the donation.
// The row opened with the donation is claimed by setting planned_at. The stored plan is
// returned either way, so a retry always sees the original shares.
func (s *LedgerStore) SaveDistributionPlan(ctx context.Context, plan *ledger.Distribution) (*ledger.Distribution, error) {
	planQuery := `
		INSERT INTO distributions (donation_id, state, attempts, created_at, updated_at, planned_at)
		VALUES ($1, $2, 0, $3, $3, $3)
		ON CONFLICT (donation_id) DO UPDATE
		SET planned_at = EXCLUDED.planned_at, updated_at = EXCLUDED.updated_at
		WHERE distributions.planned_at IS NULL
	`
	allocationQuery := `
		INSERT INTO allocations (donation_id, project_id, amount)
		VALUES ($1, $2, $3)
	`

	var saved *ledger.Distribution
	err := persistence.ExecuteTx(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, planQuery, plan.DonationID, plan.State, s.now())
		if err != nil {
			if pgErrorCode(err) == pgForeignKeyViolation {
				return shared.NotFoundError{Entity: "donation", ID: plan.DonationID.String()}
			}
			return fmt.Errorf("insert distribution: %w", err)
		}

		if tag.RowsAffected() == 1 {
			for _, a := range plan.Allocations {
				if _, err := tx.Exec(ctx, allocationQuery, plan.DonationID, a.ProjectID, a.Amount); err != nil {
					if pgErrorCode(err) == pgForeignKeyViolation {
						return shared.NotFoundError{Entity: "project", ID: a.ProjectID}
					}
					return fmt.Errorf("insert allocation: %w", err)
				}
			}
		}

		saved, err = getDistribution(ctx, tx, plan.DonationID)
		return err
	})
	if err != nil {
		return nil, s.fail("save distribution plan", err, "donation_id", plan.DonationID.String())
	}

	return saved, nil
}

// GetDistribution returns the stored plan, or nil when none was saved yet
func (s *LedgerStore) GetDistribution(ctx context.Context, donationID uuid.UUID) (*ledger.Distribution, error) {
	d, err := getDistribution(ctx, s.db, donationID)
	if err != nil {
		return nil, s.fail("get distribution", err, "donation_id", donationID.String())
	}
	return d, nil
}

func getDistribution(ctx context.Context, q persistence.Querier, donationID uuid.UUID) (*ledger.Distribution, error) {
	planQuery := `
		SELECT donation_id, state, attempts, created_at, updated_at
		FROM distributions
		WHERE donation_id = $1 AND planned_at IS NOT NULL
	`
	allocationsQuery := `
		SELECT project_id, amount, project_applied_at, donor_applied_at
		FROM allocations
		WHERE donation_id = $1
		ORDER BY project_id ASC
	`

	var d ledger.Distribution
	err := q.QueryRow(ctx, planQuery, donationID).Scan(&d.DonationID, &d.State, &d.Attempts, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := q.Query(ctx, allocationsQuery, donationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a ledger.Allocation
		if err := rows.Scan(&a.ProjectID, &a.Amount, &a.ProjectAppliedAt, &a.DonorAppliedAt); err != nil {
			return nil, err
		}
		d.Allocations = append(d.Allocations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &d, nil
}

// ApplyProjectLeg claims the project leg and adds the planned share to the project's
// CurrentAmount in the same transaction.
func (s *LedgerStore) ApplyProjectLeg(ctx context.Context, donationID uuid.UUID, projectID string) (bool, error) {
	claimQuery := `
		UPDATE allocations
		SET project_applied_at = $3
		WHERE donation_id = $1 AND project_id = $2 AND project_applied_at IS NULL
		RETURNING amount
	`
	stateQuery := `
		UPDATE distributions
		SET state = $2, updated_at = $3
		WHERE donation_id = $1 AND state = $4
	`

	applied := false
	err := persistence.ExecuteTx(ctx, s.db, func(tx pgx.Tx) error {
		now := s.now()
		var amount int64
		err := tx.QueryRow(ctx, claimQuery, donationID, projectID, now).Scan(&amount)
		if errors.Is(err, pgx.ErrNoRows) {
			return allocationExists(ctx, tx, donationID, projectID)
		}
		if err != nil {
			return fmt.Errorf("claim project leg: %w", err)
		}

		if _, err := tx.Exec(ctx, stateQuery, donationID, shared.DistributionStateDistributing, now, shared.DistributionStateCreated); err != nil {
			return fmt.Errorf("mark distributing: %w", err)
		}
		if amount > 0 {
			if _, err := incrementProject(ctx, tx, projectID, amount, now); err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, s.fail("apply project leg", err, "donation_id", donationID.String(), "project_id", projectID)
	}

	return applied, nil
}

// ApplyDonorLeg claims the donor leg and credits the planned share to the donor's
// contribution for the project in the same transaction.
func (s *LedgerStore) ApplyDonorLeg(ctx context.Context, donationID uuid.UUID, projectID string) (bool, error) {
	claimQuery := `
		UPDATE allocations
		SET donor_applied_at = $3
		WHERE donation_id = $1 AND project_id = $2 AND donor_applied_at IS NULL
		RETURNING amount
	`

	applied := false
	err := persistence.ExecuteTx(ctx, s.db, func(tx pgx.Tx) error {
		now := s.now()
		var amount int64
		err := tx.QueryRow(ctx, claimQuery, donationID, projectID, now).Scan(&amount)
		if errors.Is(err, pgx.ErrNoRows) {
			return allocationExists(ctx, tx, donationID, projectID)
		}
		if err != nil {
			return fmt.Errorf("claim donor leg: %w", err)
		}

		var donorID string
		if err := tx.QueryRow(ctx, `SELECT donor_id FROM donations WHERE id = $1`, donationID).Scan(&donorID); err != nil {
			return fmt.Errorf("load donor: %w", err)
		}
		if amount > 0 {
			if err := applyContribution(ctx, tx, donorID, projectID, amount, now); err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, s.fail("apply donor leg", err, "donation_id", donationID.String(), "project_id", projectID)
	}

	return applied, nil
}

// allocationExists distinguishes an already-applied leg (nil) from an unknown allocation
func allocationExists(ctx context.Context, q persistence.Querier, donationID uuid.UUID, projectID string) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM allocations WHERE donation_id = $1 AND project_id = $2)`
	if err := q.QueryRow(ctx, query, donationID, projectID).Scan(&exists); err != nil {
		return fmt.Errorf("check allocation: %w", err)
	}
	if !exists {
		return shared.NotFoundError{Entity: "allocation", ID: donationID.String() + "/" + projectID}
	}
	return nil
}

// RefreshDistributionState derives the state from the leg flags and records an
// attempt when legs remain outstanding.
func (s *LedgerStore) RefreshDistributionState(ctx context.Context, donationID uuid.UUID) (*ledger.Distribution, error) {
	updateQuery := `
		UPDATE distributions
		SET state = $2, attempts = attempts + $3, updated_at = $4
		WHERE donation_id = $1
	`

	var d *ledger.Distribution
	err := persistence.ExecuteTx(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		d, err = getDistribution(ctx, tx, donationID)
		if err != nil {
			return err
		}
		if d == nil {
			return shared.NotFoundError{Entity: "distribution", ID: donationID.String()}
		}

		d.State = ledger.DeriveState(d.Allocations)
		attempt := 0
		if d.State == shared.DistributionStatePartiallyApplied {
			attempt = 1
		}
		d.UpdatedAt = s.now()
		if _, err := tx.Exec(ctx, updateQuery, donationID, d.State, attempt, d.UpdatedAt); err != nil {
			return fmt.Errorf("update distribution state: %w", err)
		}
		d.Attempts += attempt
		return nil
	})
	if err != nil {
		return nil, s.fail("refresh distribution state", err, "donation_id", donationID.String())
	}

	return d, nil
}

// ListPendingDistributions returns distributions that still have legs outstanding,
// including donations whose plan was never saved. Allocations are not loaded.
func (s *LedgerStore) ListPendingDistributions(ctx context.Context, olderThan time.Time, maxAttempts, limit int) ([]*ledger.Distribution, error) {
	query := `
		SELECT donation_id, state, attempts, created_at, updated_at
		FROM distributions
		WHERE state <> $1 AND updated_at < $2 AND attempts < $3
		ORDER BY updated_at ASC
		LIMIT $4
	`

	rows, err := s.db.Query(ctx, query, shared.DistributionStateFullyApplied, olderThan, maxAttempts, limit)
	if err != nil {
		return nil, s.fail("list pending distributions", err)
	}
	defer rows.Close()

	var pending []*ledger.Distribution
	for rows.Next() {
		var d ledger.Distribution
		if err := rows.Scan(&d.DonationID, &d.State, &d.Attempts, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, s.fail("scan distribution", err)
		}
		pending = append(pending, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list pending distributions", err)
	}

	return pending, nil
}
