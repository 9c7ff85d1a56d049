package service

import (
	"context"
	"log/slog"

	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/domain/project"
	"github.com/eco-fund-ledger/internal/domain/shared"
)

// ProjectServiceImpl implements the ProjectService interface
type ProjectServiceImpl struct {
	store  ledger.ProjectStore
	logger *slog.Logger
}

// NewProjectService creates a new project service
func NewProjectService(logger *slog.Logger, store ledger.ProjectStore) ProjectService {
	return &ProjectServiceImpl{
		store:  store,
		logger: logger,
	}
}

func (s *ProjectServiceImpl) ListProjects(ctx context.Context) ([]*project.Project, error) {
	return s.store.ListProjects(ctx)
}

func (s *ProjectServiceImpl) GetProject(ctx context.Context, id string) (*project.Project, error) {
	return s.store.GetProject(ctx, id)
}

// CreateProject validates and stores a new project with nothing raised yet
func (s *ProjectServiceImpl) CreateProject(ctx context.Context, req CreateProjectRequest) (*project.Project, error) {
	p, err := project.NewProject(req.ID, req.Title, req.Description, req.TargetAmount, shared.ProjectStatus(req.Status))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("Project created", "project_id", p.ID, "target_amount", p.TargetAmount, "status", string(p.Status))
	return p, nil
}

// UpdateProject changes the title, description or status of a project
func (s *ProjectServiceImpl) UpdateProject(ctx context.Context, id string, req UpdateProjectRequest) (*project.Project, error) {
	if req.Title == nil && req.Description == nil && req.Status == nil {
		return nil, shared.ValidationError{Field: "body", Reason: "nothing to update"}
	}

	update := ledger.ProjectUpdate{Description: req.Description}
	if req.Title != nil {
		title := *req.Title
		if title == "" {
			return nil, shared.ValidationError{Field: "title", Reason: "must not be empty"}
		}
		update.Title = &title
	}
	if req.Status != nil {
		status, err := project.ParseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		update.Status = &status
	}

	p, err := s.store.UpdateProject(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Project updated", "project_id", p.ID, "status", string(p.Status))
	return p, nil
}
