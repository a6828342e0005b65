package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playrollio/backend/internal/sim"
)

// WorldState exposes a read-only copy of the authoritative world for
// debugging. Rendering collaborators read the same view.
func WorldState(server *sim.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		balls := server.WorldView()
		c.JSON(http.StatusOK, gin.H{
			"count": len(balls),
			"balls": balls,
		})
	}
}
