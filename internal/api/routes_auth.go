package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gitteams/internal/handlers"
)

type authRouteDeps struct {
	Handler   *handlers.AuthHandler
	RateLimit gin.HandlerFunc
}

func registerAuthRoutes(engine *gin.Engine, api *gin.RouterGroup, deps authRouteDeps) {
	auth := engine.Group("/api/auth")
	{
		auth.POST("/login", deps.RateLimit, deps.Handler.Login)
	}

	api.GET("/auth/me", deps.Handler.Me)
}
