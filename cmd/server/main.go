package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/playrollio/backend/internal/api"
	"github.com/playrollio/backend/internal/config"
	"github.com/playrollio/backend/internal/database"
	"github.com/playrollio/backend/internal/middleware"
	"github.com/playrollio/backend/internal/redis"
	"github.com/playrollio/backend/internal/sim"
	"github.com/playrollio/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	opts := sim.ServerOptions{
		SpawnFloor:    cfg.SpawnFloor,
		SnapshotEvery: cfg.SnapshotSeconds * cfg.TickRateHz,
	}

	// Optional session journal
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := sim.EnsureJournalSchema(db); err != nil {
			log.Fatalf("Failed to ensure journal schema: %v", err)
		}
		opts.DB = db
		log.Printf("[DB] session journal enabled")
	}

	// Optional world-snapshot publisher
	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
		opts.Redis = rdb
		log.Printf("[SNAPSHOT] world snapshots enabled")
	}

	hub := ws.NewHub(cfg.ReliableSettings())
	server := sim.NewServer(hub, opts)

	// Authoritative tick loop: single goroutine, fixed cadence.
	go func() {
		dt := cfg.TickInterval().Seconds()
		ticker := time.NewTicker(cfg.TickInterval())
		defer ticker.Stop()
		for range ticker.C {
			if err := server.Tick(dt); err != nil {
				log.Fatalf("[SIM] fatal: %v", err)
			}
		}
	}()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(middleware.CORS(cfg))
	api.SetupRoutes(router, hub, server)

	log.Printf("Starting playrollio server on %s (tick %d Hz)", cfg.ListenAddr, cfg.TickRateHz)
	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
