package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gitteams/internal/models"
	"github.com/charlesng35/gitteams/internal/services"
	"github.com/charlesng35/gitteams/pkg/response"
)

// ProjectHandler exposes owner project management.
type ProjectHandler struct {
	projects *services.ProjectService
	ledger   *services.GroupLedger
	audit    *services.AuditService
}

func NewProjectHandler(projects *services.ProjectService, ledger *services.GroupLedger, audit *services.AuditService) *ProjectHandler {
	return &ProjectHandler{projects: projects, ledger: ledger, audit: audit}
}

type createProjectRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Org         string  `json:"org" validate:"required,max=100"`
	Description *string `json:"description"`
	MinPeople   int     `json:"min_people" validate:"min=1"`
	MaxPeople   int     `json:"max_people" validate:"min=1"`
}

type projectSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Org         string    `json:"org"`
	Description string    `json:"description"`
	MinPeople   int       `json:"min_people"`
	MaxPeople   int       `json:"max_people"`
	InviteToken string    `json:"invite_token"`
	CreatedAt   time.Time `json:"created_at"`
}

type groupPayload struct {
	ID            string               `json:"id"`
	Number        int                  `json:"number"`
	Name          string               `json:"name"`
	Participants  []models.Participant `json:"participants"`
	Repository    *repositoryPayload   `json:"repository,omitempty"`
	Collaborators map[string]any       `json:"collaborators"`
	CreatedAt     time.Time            `json:"created_at"`
}

type repositoryPayload struct {
	URL      string `json:"url"`
	FullName string `json:"full_name"`
}

func newProjectSummary(project *models.Project) projectSummary {
	return projectSummary{
		ID:          project.ID,
		Title:       project.Title,
		Org:         project.Org,
		Description: project.DisplayDescription(),
		MinPeople:   project.MinPeople,
		MaxPeople:   project.MaxPeople,
		InviteToken: project.InviteToken,
		CreatedAt:   project.CreatedAt,
	}
}

func newGroupPayload(group *models.Group) groupPayload {
	payload := groupPayload{
		ID:            group.ID,
		Number:        group.Number,
		Name:          group.Name(),
		Participants:  []models.Participant(group.Participants),
		Collaborators: map[string]any(group.Collaborators),
		CreatedAt:     group.CreatedAt,
	}
	if payload.Participants == nil {
		payload.Participants = []models.Participant{}
	}
	if payload.Collaborators == nil {
		payload.Collaborators = map[string]any{}
	}
	if group.RepositoryURL != "" || group.RepositoryFullName != "" {
		payload.Repository = &repositoryPayload{URL: group.RepositoryURL, FullName: group.RepositoryFullName}
	}
	return payload
}

// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projects.ListByOwner(requestContext(c), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]projectSummary, 0, len(projects))
	for i := range projects {
		out = append(out, newProjectSummary(&projects[i]))
	}
	response.Success(c, http.StatusOK, out)
}

// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req createProjectRequest
	if !bindAndValidate(c, &req) {
		return
	}

	project, err := h.projects.Create(requestContext(c), currentUserID(c), services.CreateProjectInput{
		Title:       req.Title,
		Org:         req.Org,
		Description: req.Description,
		MinPeople:   req.MinPeople,
		MaxPeople:   req.MaxPeople,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, newProjectSummary(project))
}

// GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.projects.GetForOwner(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	groups := make([]groupPayload, 0, len(project.Groups))
	for i := range project.Groups {
		groups = append(groups, newGroupPayload(&project.Groups[i]))
	}

	response.Success(c, http.StatusOK, gin.H{
		"project": newProjectSummary(project),
		"groups":  groups,
	})
}

// GET /api/projects/:id/groups
func (h *ProjectHandler) Groups(c *gin.Context) {
	ctx := requestContext(c)
	project, err := h.projects.GetForOwner(ctx, currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	groups, err := h.ledger.ListByProject(ctx, project.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]groupPayload, 0, len(groups))
	for i := range groups {
		out = append(out, newGroupPayload(&groups[i]))
	}
	response.Success(c, http.StatusOK, out)
}

// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projects.Delete(requestContext(c), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/projects/:id/activity
func (h *ProjectHandler) Activity(c *gin.Context) {
	ctx := requestContext(c)
	project, err := h.projects.GetForOwner(ctx, currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 50)

	logs, total, err := h.audit.List(ctx, services.AuditListOptions{
		Page:     page,
		PageSize: perPage,
		Filters: services.AuditFilters{
			ProjectID: project.ID,
			Action:    c.Query("action"),
			Result:    c.Query("result"),
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}
	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}

	response.SuccessWithMeta(c, http.StatusOK, logs, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      int(total),
		TotalPages: totalPages,
	})
}
