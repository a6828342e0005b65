package main

import (
	"log"
	"math/rand"
	"time"

	"github.com/joho/godotenv"

	"github.com/playrollio/backend/internal/config"
	"github.com/playrollio/backend/internal/game"
	"github.com/playrollio/backend/internal/sim"
	"github.com/playrollio/backend/internal/ws"
)

// Headless bot client: connects, runs the synchronization loop, and
// drives the pointer with a synthetic wandering drag so a server can be
// exercised without a renderer.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	session, err := ws.Dial(cfg.ServerURL, cfg.ReliableSettings())
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", cfg.ServerURL, err)
	}
	defer session.Close()
	log.Printf("Connected to %s", cfg.ServerURL)

	client := sim.NewClient(session, cfg.DeadzoneRadius)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	pointer := randomPointer(rng)
	pressed := true

	dt := cfg.TickInterval().Seconds()
	ticker := time.NewTicker(cfg.TickInterval())
	defer ticker.Stop()

	tick := 0
	for range ticker.C {
		tick++

		// Re-aim every two seconds, occasionally letting go.
		if tick%(2*cfg.TickRateHz) == 0 {
			pressed = rng.Float64() < 0.8
			pointer = randomPointer(rng)
		}
		client.Pointer(pointer, pressed)

		client.Tick(dt)

		if tick%(5*cfg.TickRateHz) == 0 {
			log.Printf("tracking %d balls, controlling %d", len(client.Balls()), client.LocalID())
		}
	}
}

// randomPointer fakes a drag offset from screen center, far enough to
// clear the deadzone most of the time.
func randomPointer(rng *rand.Rand) game.Vec2 {
	return game.NewVec2(rng.Float64()*400-200, rng.Float64()*400-200)
}
