package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gitteams/internal/handlers"
)

// registerRealtimeRoutes mounts the websocket endpoint. It authenticates on its
// own because the token may arrive as a query parameter.
func registerRealtimeRoutes(engine *gin.Engine, handler *handlers.RealtimeHandler) {
	engine.GET("/ws", handler.Stream)
}
