package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gitteams/internal/handlers"
	"github.com/charlesng35/gitteams/internal/security"
)

func registerSecurityRoutes(api *gin.RouterGroup, audit *security.AuditService) error {
	handler, err := handlers.NewSecurityHandler(audit)
	if err != nil {
		return err
	}

	sec := api.Group("/security")
	{
		sec.GET("/audit", handler.Audit)
	}
	return nil
}
