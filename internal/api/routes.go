package api

import (
	"github.com/gin-gonic/gin"

	"github.com/playrollio/backend/internal/api/handlers"
	"github.com/playrollio/backend/internal/sim"
	"github.com/playrollio/backend/internal/ws"
)

// SetupRoutes configures the websocket endpoint and the read-only HTTP
// surface around the simulation.
func SetupRoutes(router *gin.Engine, hub *ws.Hub, server *sim.Server) {
	// Game clients attach here.
	router.GET("/ws", gin.WrapF(hub.HandleUpgrade))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.GET("/world", handlers.WorldState(server))
	}
}
