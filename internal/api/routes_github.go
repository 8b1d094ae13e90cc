package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gitteams/internal/handlers"
)

func registerGitHubRoutes(api *gin.RouterGroup, handler *handlers.GitHubHandler) {
	gh := api.Group("/github")
	{
		gh.GET("/orgs", handler.Organizations)
		gh.DELETE("/orgs/cache", handler.RefreshOrganizations)
	}
}
