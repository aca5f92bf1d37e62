package samples

import (
	"sync"

	"github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/internal/dataset"
	"github.com/microscopium/microscopium/pkg/ds"
	"github.com/microscopium/microscopium/pkg/httpclient"
	"github.com/microscopium/microscopium/pkg/inmemorycache"
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

// SetMockSamplesHandler builds a handler around explicit dependencies.
// Tests only.
func SetMockSamplesHandler(configManager config.Manager, httpClient *httpclient.Client,
	imageCache inmemorycache.InMemoryCache) *HandlerV1 {
	once.Do(func() {})
	handlerV1 = &HandlerV1{
		configManager: configManager,
		httpClient:    httpClient,
		tables:        ds.NewSyncMap[string, *dataset.Table](),
		imageCache:    imageCache,
	}
	return handlerV1
}
