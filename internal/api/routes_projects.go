package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gitteams/internal/handlers"
)

func registerProjectRoutes(api *gin.RouterGroup, handler *handlers.ProjectHandler) {
	projects := api.Group("/projects")
	{
		projects.GET("", handler.List)
		projects.POST("", handler.Create)
		projects.GET("/:id", handler.Get)
		projects.DELETE("/:id", handler.Delete)
		projects.GET("/:id/groups", handler.Groups)
		projects.GET("/:id/activity", handler.Activity)
	}
}
