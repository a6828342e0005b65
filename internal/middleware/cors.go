package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/playrollio/backend/internal/config"
)

// CORS returns a CORS middleware for the HTTP surface. Browser game
// clients load from a different origin than the game server, so the
// debug API needs explicit allowances outside development.
func CORS(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Length", "Content-Type", "Accept",
			"Cache-Control", "X-Requested-With",
		},
		MaxAge: 12 * time.Hour, // cache preflight responses
	}

	if cfg.Environment == "development" {
		corsConfig.AllowAllOrigins = true
		return cors.New(corsConfig)
	}

	var allowed []string
	for _, origin := range strings.Split(cfg.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed = append(allowed, origin)
		}
	}
	if len(allowed) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowed
	}
	return cors.New(corsConfig)
}
