package distributedcache

import (
	"context"
	"math/rand"
	"time"

	"github.com/microscopium/microscopium/internal/repositories"
	"github.com/microscopium/microscopium/pkg/infra"
	"github.com/microscopium/microscopium/pkg/metric"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var (
	cacheDB Database
)

type RedisCache struct {
	client *redis.Client
}

func initRedisCache() Database {
	if cacheDB == nil {
		once.Do(func() {
			infra.InitRedis()
			cacheDB = &RedisCache{
				client: infra.GetRedisClient(),
			}
		})
	}
	return cacheDB
}

func (r *RedisCache) MGet(keys map[string]repositories.CacheStruct, tags []string) (map[string][]byte, error) {
	startTime := time.Now()
	responseMap := make(map[string][]byte)
	keysSlice := make([]string, 0, len(keys))
	for k := range keys {
		keysSlice = append(keysSlice, k)
	}
	metric.Count("distributed_cache_mget", int64(len(keysSlice)), tags)
	vals, err := r.client.MGet(context.Background(), keysSlice...).Result()
	if err != nil {
		metric.Incr("distributed_cache_mget_failure", tags)
		log.Error().Msgf("Error fetching data from distributed cache: %v", err)
		return responseMap, err
	}
	for i, val := range vals {
		if val != nil {
			responseMap[keysSlice[i]] = []byte(val.(string))
		}
	}
	metric.Timing("distributed_cache_mget_latency", time.Since(startTime), tags)
	return responseMap, nil
}

func (r *RedisCache) MSet(responseData map[string][]byte, missingCacheKeys map[string]repositories.CacheStruct, ttl int, tags []string) {
	startTime := time.Now()
	finalTTL := getFinalTTLWithJitter(ttl)
	pipe := r.client.Pipeline()
	count := 0
	for key, value := range responseData {
		if _, ok := missingCacheKeys[key]; !ok {
			continue
		}
		if len(value) == 0 {
			continue
		}
		metric.Incr("distributed_cache_mset", tags)
		pipe.Set(context.Background(), key, value, time.Second*time.Duration(finalTTL))
		count++
	}
	if _, err := pipe.Exec(context.Background()); err != nil {
		metric.Count("distributed_cache_mset_failure", int64(count), tags)
		log.Error().Msgf("Error persisting data to distributed cache: %v", err)
		return
	}
	metric.Timing("distributed_cache_mset_latency", time.Since(startTime), tags)
}

// getFinalTTLWithJitter spreads expiry to avoid stampedes on hot keys.
func getFinalTTLWithJitter(ttl int) int {
	jitterPercent := 10
	jitterRange := ttl * jitterPercent / 100
	jitter := rand.Intn(2*jitterRange+1) - jitterRange
	finalTTL := ttl + jitter

	if finalTTL < 1 {
		finalTTL = ttl
	}
	return finalTTL
}
