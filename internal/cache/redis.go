package cache

import (
	"context"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var Client *redis.Client

// InitRedis connects the shared client. Redis only mirrors the price
// snapshot, so an unset REDIS_URL or a dead server leaves Client nil and the
// process runs on in-memory state alone.
func InitRedis(ctx context.Context) {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		log.Warn().Msg("REDIS_URL not set, price snapshot mirroring disabled")
		return
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, price snapshot mirroring disabled")
		return
	}
	Client = client
	log.Info().Str("addr", addr).Msg("connected to Redis")
}
