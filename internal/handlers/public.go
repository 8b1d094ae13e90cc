package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gitteams/internal/github"
	"github.com/charlesng35/gitteams/internal/services"
	"github.com/charlesng35/gitteams/pkg/response"
)

// PublicHandler serves the unauthenticated invite page and group submissions.
type PublicHandler struct {
	projects  *services.ProjectService
	formation *services.GroupFormationService
}

func NewPublicHandler(projects *services.ProjectService, formation *services.GroupFormationService) *PublicHandler {
	return &PublicHandler{projects: projects, formation: formation}
}

type formGroupRequest struct {
	Participants []services.ParticipantInput `json:"participants"`
}

// GET /api/public/projects/:token
func (h *PublicHandler) View(c *gin.Context) {
	project, err := h.projects.ResolveInvite(requestContext(c), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"project": services.PublicView(project)})
}

// POST /api/public/projects/:token/groups
func (h *PublicHandler) FormGroup(c *gin.Context) {
	ctx := requestContext(c)
	project, err := h.projects.ResolveInvite(ctx, c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	var req formGroupRequest
	// participant rules are enforced by the formation service
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.formation.FormGroup(ctx, services.FormGroupRequest{
		Project:      project,
		Participants: req.Participants,
		ClientIP:     c.ClientIP(),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	collaborators := result.Collaborators
	if collaborators == nil {
		collaborators = map[string]github.CollaboratorStatus{}
	}

	response.Success(c, http.StatusCreated, gin.H{
		"group": gin.H{
			"id":           result.Group.ID,
			"number":       result.Group.Number,
			"name":         result.Group.Name(),
			"participants": result.Group.Participants,
		},
		"repository": repositoryPayload{
			URL:      result.Repository.HTMLURL,
			FullName: result.Repository.FullName,
		},
		"collaborators": collaborators,
	})
}
