package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gitteams/internal/handlers"
)

// registerPublicRoutes mounts the invite endpoints. They carry no authentication;
// the invite token in the path is the only capability.
func registerPublicRoutes(engine *gin.Engine, handler *handlers.PublicHandler, limit gin.HandlerFunc) {
	public := engine.Group("/api/public")
	public.Use(limit)
	{
		public.GET("/projects/:token", handler.View)
		public.POST("/projects/:token/groups", handler.FormGroup)
	}
}
