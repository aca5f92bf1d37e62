package inmemorycache

import (
	"sync"
	"time"

	"github.com/microscopium/microscopium/internal/repositories"
	"github.com/microscopium/microscopium/pkg/inmemorycache"
	"github.com/microscopium/microscopium/pkg/metric"
)

var (
	inMemoryDatabase Database
	once             sync.Once
)

type FreeCache struct {
	cache inmemorycache.InMemoryCache
}

func initFreeCache() Database {
	if inMemoryDatabase == nil {
		once.Do(func() {
			inmemorycache.Init(1)
			inMemoryDatabase = &FreeCache{
				cache: inmemorycache.Instance(),
			}
		})
	}
	return inMemoryDatabase
}

func (f *FreeCache) MGet(keys map[string]repositories.CacheStruct, metricTags []string) map[string][]byte {
	startTime := time.Now()
	responseMap := make(map[string][]byte)
	for key := range keys {
		metric.Incr("in_memory_cache_mget", metricTags)
		byteResponse, err := f.cache.Get([]byte(key))
		if err == nil {
			responseMap[key] = byteResponse
		}
	}
	metric.Timing("in_memory_cache_mget_latency", time.Since(startTime), metricTags)
	return responseMap
}

func (f *FreeCache) MSet(responseData map[string][]byte, missingCacheKeys map[string]repositories.CacheStruct, ttl int, metricTags []string) {
	startTime := time.Now()
	for key, value := range responseData {
		if _, ok := missingCacheKeys[key]; !ok {
			continue
		}
		if len(value) == 0 {
			continue
		}
		metric.Incr("in_memory_cache_mset", metricTags)
		f.cache.SetEx([]byte(key), value, ttl)
	}
	metric.Timing("in_memory_cache_mset_latency", time.Since(startTime), metricTags)
}
