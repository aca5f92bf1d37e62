package similar

import (
	"sync"

	"github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/internal/repositories/distributedcache"
	"github.com/microscopium/microscopium/internal/repositories/featurestore"
	"github.com/microscopium/microscopium/internal/repositories/inmemorycache"
)

var (
	once      sync.Once
	handlerV1 *HandlerV1
)

func GetHandler(version int8) *HandlerV1 {
	switch version {
	case 1:
		return InitV1()
	default:
		return nil
	}
}

// SetMockSimilarHandler builds a handler around explicit dependencies.
// Tests only.
func SetMockSimilarHandler(featureStore featurestore.Store, configManager config.Manager,
	inMemCache inmemorycache.Database, distributedCache distributedcache.Database) *HandlerV1 {
	once.Do(func() {})
	handlerV1 = &HandlerV1{
		featureStore:     featureStore,
		configManager:    configManager,
		inMemCache:       inMemCache,
		distributedCache: distributedCache,
	}
	return handlerV1
}
