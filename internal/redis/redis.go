package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Connect establishes a connection to Redis, used only for the periodic
// world-snapshot publisher.
func Connect(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return client, nil
}
