package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/domain/project"
	"github.com/eco-fund-ledger/internal/domain/shared"
)

const projectColumns = `id, title, description, target_amount, current_amount, status, created_at, updated_at`

// CreateProject stores a new project
func (s *LedgerStore) CreateProject(ctx context.Context, p *project.Project) error {
	query := `
		INSERT INTO projects (id, title, description, target_amount, current_amount, status, created_at, updated_at)
		VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8)
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		p.Title,
		p.Description,
		p.TargetAmount,
		p.CurrentAmount,
		string(p.Status),
		toMillis(p.CreatedAt),
		toMillis(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ValidationError{Field: "id", Reason: "already exists"}
		}
		return s.fail("create project", err, "project_id", p.ID)
	}

	return nil
}

// GetProject retrieves a project by id
func (s *LedgerStore) GetProject(ctx context.Context, id string) (*project.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.NotFoundError{Entity: "project", ID: id}
		}
		return nil, s.fail("get project", err, "project_id", id)
	}
	return p, nil
}

func (s *LedgerStore) ListProjects(ctx context.Context) ([]*project.Project, error) {
	return s.queryProjects(ctx, "list projects", `SELECT `+projectColumns+` FROM projects ORDER BY id ASC`)
}

func (s *LedgerStore) ListActiveProjects(ctx context.Context) ([]*project.Project, error) {
	return s.queryProjects(ctx, "list active projects",
		`SELECT `+projectColumns+` FROM projects WHERE status = ?1 ORDER BY id ASC`,
		string(shared.ProjectStatusActive))
}

func (s *LedgerStore) queryProjects(ctx context.Context, op, query string, args ...any) ([]*project.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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
		SET title = COALESCE(?2, title),
			description = COALESCE(?3, description),
			status = COALESCE(?4, status),
			updated_at = ?5
		WHERE id = ?1
		RETURNING ` + projectColumns

	var title, description, status sql.NullString
	if update.Title != nil {
		title = sql.NullString{String: *update.Title, Valid: true}
	}
	if update.Description != nil {
		description = sql.NullString{String: *update.Description, Valid: true}
	}
	if update.Status != nil {
		status = sql.NullString{String: string(*update.Status), Valid: true}
	}

	p, err := scanProject(s.db.QueryRowContext(ctx, query, id, title, description, status, toMillis(s.now())))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

func incrementProject(ctx context.Context, q querier, id string, delta int64, now time.Time) (*project.Project, error) {
	query := `
		UPDATE projects
		SET current_amount = current_amount + ?2, updated_at = ?3
		WHERE id = ?1
		RETURNING ` + projectColumns

	p, err := scanProject(q.QueryRowContext(ctx, query, id, delta, toMillis(now)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.NotFoundError{Entity: "project", ID: id}
	}
	return p, err
}

func scanProject(row scanner) (*project.Project, error) {
	var (
		p                    project.Project
		status               string
		createdAt, updatedAt int64
	)
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.TargetAmount, &p.CurrentAmount, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = shared.ProjectStatus(status)
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return &p, nil
}
