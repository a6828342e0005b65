package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/playrollio/backend/internal/channel"
)

type Config struct {
	// Environment
	Environment string

	// Server
	ListenAddr string

	// Client
	ServerURL string

	// Comma-separated allowed CORS origins outside development
	AllowedOrigins string

	// Simulation
	TickRateHz     int
	SpawnFloor     int
	DeadzoneRadius float64

	// Optional side channels (empty = disabled)
	RedisURL    string
	DatabaseURL string

	// Snapshot cadence in seconds (Redis only)
	SnapshotSeconds int

	// Reliable-channel transport knobs
	ReliableBandwidth  int
	ReliableWindowSize int
	InitialRTTMillis   int
	MaxRTTMillis       int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	defaults := channel.DefaultReliableSettings()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Server
		ListenAddr: getEnv("LISTEN_ADDR", "127.0.0.1:9001"),

		// Client
		ServerURL: getEnv("SERVER_URL", "ws://127.0.0.1:9001/ws"),

		AllowedOrigins: getEnv("ALLOWED_ORIGINS", ""),

		// Simulation
		TickRateHz:     getEnvInt("TICK_RATE_HZ", 30),
		SpawnFloor:     getEnvInt("SPAWN_FLOOR", 3),
		DeadzoneRadius: getEnvFloat("DEADZONE_RADIUS", 30),

		// Side channels
		RedisURL:    getEnv("REDIS_URL", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		SnapshotSeconds: getEnvInt("SNAPSHOT_SECONDS", 1),

		// Transport
		ReliableBandwidth:  getEnvInt("RELIABLE_BANDWIDTH", defaults.Bandwidth),
		ReliableWindowSize: getEnvInt("RELIABLE_WINDOW_SIZE", defaults.SendWindowSize),
		InitialRTTMillis:   getEnvInt("INITIAL_RTT_MS", int(defaults.InitialRTT.Milliseconds())),
		MaxRTTMillis:       getEnvInt("MAX_RTT_MS", int(defaults.MaxRTT.Milliseconds())),
	}
}

// ReliableSettings folds the env overrides into the channel registry's
// reliable tuning.
func (c *Config) ReliableSettings() channel.ReliableSettings {
	s := channel.DefaultReliableSettings()
	s.Bandwidth = c.ReliableBandwidth
	s.SendWindowSize = c.ReliableWindowSize
	s.RecvWindowSize = c.ReliableWindowSize
	s.InitialRTT = time.Duration(c.InitialRTTMillis) * time.Millisecond
	s.MaxRTT = time.Duration(c.MaxRTTMillis) * time.Millisecond
	return s
}

// TickInterval is the simulation cadence.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRateHz)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
