package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// SaveDistributionPlan persists plan unless a plan already exists for the donation.
// The row opened with the donation is claimed by setting planned_at. The stored plan
// is returned either way.
func (s *LedgerStore) SaveDistributionPlan(ctx context.Context, plan *ledger.Distribution) (*ledger.Distribution, error) {
	planQuery := `
		INSERT INTO distributions (donation_id, state, attempts, created_at, updated_at, planned_at)
		VALUES (?1, ?2, 0, ?3, ?3, ?3)
		ON CONFLICT (donation_id) DO UPDATE
		SET planned_at = excluded.planned_at, updated_at = excluded.updated_at
		WHERE planned_at IS NULL
	`
	allocationQuery := `INSERT INTO allocations (donation_id, project_id, amount) VALUES (?1, ?2, ?3)`

	var saved *ledger.Distribution
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		id := plan.DonationID.String()
		res, err := tx.ExecContext(ctx, planQuery, id, string(plan.State), toMillis(s.now()))
		if err != nil {
			if isForeignKeyViolation(err) {
				return shared.NotFoundError{Entity: "donation", ID: id}
			}
			return fmt.Errorf("insert distribution: %w", err)
		}

		if n, _ := res.RowsAffected(); n == 1 {
			for _, a := range plan.Allocations {
				if _, err := tx.ExecContext(ctx, allocationQuery, id, a.ProjectID, a.Amount); err != nil {
					if isForeignKeyViolation(err) {
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

func getDistribution(ctx context.Context, q querier, donationID uuid.UUID) (*ledger.Distribution, error) {
	planQuery := `
		SELECT donation_id, state, attempts, created_at, updated_at
		FROM distributions
		WHERE donation_id = ?1 AND planned_at IS NOT NULL
	`
	allocationsQuery := `
		SELECT project_id, amount, project_applied_at, donor_applied_at
		FROM allocations
		WHERE donation_id = ?1
		ORDER BY project_id ASC
	`

	d, err := scanDistribution(q.QueryRowContext(ctx, planQuery, donationID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := q.QueryContext(ctx, allocationsQuery, donationID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a                            ledger.Allocation
			projectApplied, donorApplied sql.NullInt64
		)
		if err := rows.Scan(&a.ProjectID, &a.Amount, &projectApplied, &donorApplied); err != nil {
			return nil, err
		}
		a.ProjectAppliedAt = fromNullMillis(projectApplied)
		a.DonorAppliedAt = fromNullMillis(donorApplied)
		d.Allocations = append(d.Allocations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return d, nil
}

func scanDistribution(row scanner) (*ledger.Distribution, error) {
	var (
		d                    ledger.Distribution
		id, state            string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&id, &state, &d.Attempts, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	donationID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse donation id: %w", err)
	}
	d.DonationID = donationID
	d.State = shared.DistributionState(state)
	d.CreatedAt = fromMillis(createdAt)
	d.UpdatedAt = fromMillis(updatedAt)
	return &d, nil
}

// ApplyProjectLeg claims the project leg and adds the planned share to the project
// in the same transaction.
func (s *LedgerStore) ApplyProjectLeg(ctx context.Context, donationID uuid.UUID, projectID string) (bool, error) {
	claimQuery := `
		UPDATE allocations
		SET project_applied_at = ?3
		WHERE donation_id = ?1 AND project_id = ?2 AND project_applied_at IS NULL
		RETURNING amount
	`
	stateQuery := `
		UPDATE distributions
		SET state = ?2, updated_at = ?3
		WHERE donation_id = ?1 AND state = ?4
	`

	applied := false
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		now := s.now()
		id := donationID.String()
		var amount int64
		err := tx.QueryRowContext(ctx, claimQuery, id, projectID, toMillis(now)).Scan(&amount)
		if errors.Is(err, sql.ErrNoRows) {
			return allocationExists(ctx, tx, donationID, projectID)
		}
		if err != nil {
			return fmt.Errorf("claim project leg: %w", err)
		}

		_, err = tx.ExecContext(ctx, stateQuery, id,
			string(shared.DistributionStateDistributing), toMillis(now), string(shared.DistributionStateCreated))
		if err != nil {
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
		SET donor_applied_at = ?3
		WHERE donation_id = ?1 AND project_id = ?2 AND donor_applied_at IS NULL
		RETURNING amount
	`

	applied := false
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		now := s.now()
		id := donationID.String()
		var amount int64
		err := tx.QueryRowContext(ctx, claimQuery, id, projectID, toMillis(now)).Scan(&amount)
		if errors.Is(err, sql.ErrNoRows) {
			return allocationExists(ctx, tx, donationID, projectID)
		}
		if err != nil {
			return fmt.Errorf("claim donor leg: %w", err)
		}

		// RETURNING cannot reach the donations table, so the donor is looked up separately
		var donorID string
		if err := tx.QueryRowContext(ctx, `SELECT donor_id FROM donations WHERE id = ?1`, id).Scan(&donorID); err != nil {
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

func allocationExists(ctx context.Context, q querier, donationID uuid.UUID, projectID string) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM allocations WHERE donation_id = ?1 AND project_id = ?2)`
	if err := q.QueryRowContext(ctx, query, donationID.String(), projectID).Scan(&exists); err != nil {
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
		SET state = ?2, attempts = attempts + ?3, updated_at = ?4
		WHERE donation_id = ?1
	`

	var d *ledger.Distribution
	err := s.inTx(ctx, func(tx *sql.Tx) error {
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
		if _, err := tx.ExecContext(ctx, updateQuery, donationID.String(), string(d.State), attempt, toMillis(d.UpdatedAt)); err != nil {
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
		WHERE state <> ?1 AND updated_at < ?2 AND attempts < ?3
		ORDER BY updated_at ASC
		LIMIT ?4
	`

	rows, err := s.db.QueryContext(ctx, query,
		string(shared.DistributionStateFullyApplied), toMillis(olderThan), maxAttempts, limit)
	if err != nil {
		return nil, s.fail("list pending distributions", err)
	}
	defer rows.Close()

	var pending []*ledger.Distribution
	for rows.Next() {
		d, err := scanDistribution(rows)
		if err != nil {
			return nil, s.fail("scan distribution", err)
		}
		pending = append(pending, d)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list pending distributions", err)
	}

	return pending, nil
}
