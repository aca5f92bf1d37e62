package inmemorycache

import (
	"github.com/microscopium/microscopium/internal/repositories"
)

type Database interface {
	MGet(keys map[string]repositories.CacheStruct, metricTags []string) map[string][]byte
	MSet(responseData map[string][]byte, missingCacheKeys map[string]repositories.CacheStruct, ttl int, metricTags []string)
}
