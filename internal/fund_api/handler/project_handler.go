package handler

import (
	"log/slog"

	"github.com/eco-fund-ledger/internal/fund/service"
	"github.com/gin-gonic/gin"
)

// ProjectHandler handles HTTP requests for the project catalogue
type ProjectHandler struct {
	projectService service.ProjectService
	logger         *slog.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(logger *slog.Logger, projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger,
	}
}

func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projectService.ListProjects(c.Request.Context())
	if err != nil {
		RespondServiceError(c, h.logger, "Failed to list projects", err)
		return
	}

	response := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		response = append(response, mapProjectToResponse(p))
	}
	RespondOK(c, response)
}

func (h *ProjectHandler) GetByID(c *gin.Context) {
	p, err := h.projectService.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondServiceError(c, h.logger, "Failed to get project", err)
		return
	}

	RespondOK(c, mapProjectToResponse(p))
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Info("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	p, err := h.projectService.CreateProject(c.Request.Context(), service.CreateProjectRequest{
		ID:           req.ID,
		Title:        req.Title,
		Description:  req.Description,
		TargetAmount: req.TargetAmount,
		Status:       req.Status,
	})
	if err != nil {
		RespondServiceError(c, h.logger, "Failed to create project", err)
		return
	}

	RespondCreated(c, mapProjectToResponse(p))
}

// Update patches title, description or status. Raised funds only change through donations.
func (h *ProjectHandler) Update(c *gin.Context) {
	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Info("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.CurrentAmount != nil {
		RespondBadRequest(c, "currentAmount cannot be set directly")
		return
	}

	p, err := h.projectService.UpdateProject(c.Request.Context(), c.Param("id"), service.UpdateProjectRequest{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		RespondServiceError(c, h.logger, "Failed to update project", err)
		return
	}

	RespondOK(c, mapProjectToResponse(p))
}
