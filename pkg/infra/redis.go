package infra

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// InitRedis initializes the single Redis client from viper config.
func InitRedis() {
	redisOnce.Do(func() {
		addr := viper.GetString("REDIS_ADDR")
		if addr == "" {
			log.Panic().Msg("REDIS_ADDR is not set")
		}
		redisClient = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Panic().Msgf("redis ping failed: %v", err)
		}
	})
}

// GetRedisClient returns the shared Redis client. InitRedis must be called first.
func GetRedisClient() *redis.Client {
	return redisClient
}

// SetRedisClientForTesting swaps the shared client. Tests only.
func SetRedisClientForTesting(c *redis.Client) {
	redisClient = c
}
