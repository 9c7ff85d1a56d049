package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/domain/project"
	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/eco-fund-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

const projectColumns = `id, title, description, target_amount, current_amount, status, created_at, updated_at`

// CreateProject stores a new project
func (s *LedgerStore) CreateProject(ctx context.Context, p *project.Project) error {
	query := `
		INSERT INTO projects (id, title, description, target_amount, current_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.Exec(ctx, query,
		p.ID,
		p.Title,
		p.Description,
		p.TargetAmount,
		p.CurrentAmount,
		p.Status,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return shared.ValidationError{Field: "id", Reason: "already exists"}
		}
		return s.fail("create project", err, "project_id", p.ID)
	}

	return nil
}

// GetProject retrieves a project by id
func (s *LedgerStore) GetProject(ctx context.Context, id string) (*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	p, err := scanProject(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFoundError{Entity: "project", ID: id}
		}
		return nil, s.fail("get project", err, "project_id", id)
	}

	return p, nil
}

// ListProjects returns every project ordered by id
func (s *LedgerStore) ListProjects(ctx context.Context) ([]*project.Project, error) {
	return s.queryProjects(ctx, "list projects", `SELECT `+projectColumns+` FROM projects ORDER BY id ASC`)
}

// ListActiveProjects returns the active projects ordered by id
func (s *LedgerStore) ListActiveProjects(ctx context.Context) ([]*project.Project, error) {
	return s.queryProjects(ctx, "list active projects",
		`SELECT `+projectColumns+` FROM projects WHERE status = $1 ORDER BY id ASC`,
		shared.ProjectStatusActive)
}

func (s *LedgerStore) queryProjects(ctx context.Context, op, query string, args ...any) ([]*project.Project, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, s.fail(op, err)
	}
	defer rows.Close()

	var projects []*project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, s.fail(op, err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(op, err)
	}

	return projects, nil
}

// UpdateProject changes the descriptive fields and status. CurrentAmount is not touched.
func (s *LedgerStore) UpdateProject(ctx context.Context, id string, update ledger.ProjectUpdate) (*project.Project, error) {
	query := `
		UPDATE projects
		SET title = COALESCE($2, title),
			description = COALESCE($3, description),
			status = COALESCE($4, status),
			updated_at = $5
		WHERE id = $1
		RETURNING ` + projectColumns

	var status *string
	if update.Status != nil {
		v := string(*update.Status)
		status = &v
	}

	p, err := scanProject(s.db.QueryRow(ctx, query, id, update.Title, update.Description, status, s.now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.NotFoundError{Entity: "project", ID: id}
		}
		return nil, s.fail("update project", err, "project_id", id)
	}

	return p, nil
}

// IncrementProjectAmount atomically adds delta to the project's CurrentAmount
func (s *LedgerStore) IncrementProjectAmount(ctx context.Context, id string, delta int64) (*project.Project, error) {
	if delta < 0 {
		return nil, shared.ValidationError{Field: "delta", Reason: "must not be negative"}
	}

	p, err := incrementProject(ctx, s.db, id, delta, s.now())
	if err != nil {
		return nil, s.fail("increment project amount", err, "project_id", id, "delta", delta)
	}

	return p, nil
}

func incrementProject(ctx context.Context, q persistence.Querier, id string, delta int64, now time.Time) (*project.Project, error) {
	query := `
		UPDATE projects
		SET current_amount = current_amount + $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + projectColumns

	p, err := scanProject(q.QueryRow(ctx, query, id, delta, now))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFoundError{Entity: "project", ID: id}
	}
	return p, err
}

func scanProject(row scanner) (*project.Project, error) {
	var p project.Project
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.TargetAmount,
		&p.CurrentAmount,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
