package store

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates and pings a Redis client with optional password
// auth. Callers treat a failure here as non-fatal: sessions are simply
// disabled until the process is restarted with Redis reachable.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}
