package distributedcache

import (
	"sync"

	"github.com/microscopium/microscopium/internal/repositories"
)

var (
	once sync.Once
)

type Database interface {
	MGet(keys map[string]repositories.CacheStruct, metricTags []string) (map[string][]byte, error)
	MSet(responseData map[string][]byte, missingCacheKeys map[string]repositories.CacheStruct, ttl int, metricTags []string)
}
