package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gitteams/internal/services"
	"github.com/charlesng35/gitteams/pkg/response"
)

// GitHubHandler exposes owner-facing GitHub lookups.
type GitHubHandler struct {
	orgs *services.OrganizationService
}

func NewGitHubHandler(orgs *services.OrganizationService) *GitHubHandler {
	return &GitHubHandler{orgs: orgs}
}

// GET /api/github/orgs
func (h *GitHubHandler) Organizations(c *gin.Context) {
	orgs, err := h.orgs.List(requestContext(c), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, orgs)
}

// DELETE /api/github/orgs/cache
func (h *GitHubHandler) RefreshOrganizations(c *gin.Context) {
	if err := h.orgs.Invalidate(requestContext(c), currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"invalidated": true})
}
