package featurestore

import (
	"sync"

	"github.com/microscopium/microscopium/internal/config/structs"
	"github.com/microscopium/microscopium/pkg/ds"
)

var (
	queryCache     *ds.SyncMap[string, string]
	featureStore   Store
	once           sync.Once
	DefaultVersion = 1
	appConfig      structs.Configs
	initOnce       sync.Once
)

func Init() {
	initOnce.Do(func() {
		appConfig = structs.GetAppConfig().Configs
	})
}

func NewRepository(version int) Store {
	switch version {
	case DefaultVersion:
		return initFeatureStore()
	default:
		return nil
	}
}

func SetInstance(provider Store) {
	featureStore = provider
	once.Do(func() {}) // Marking the sync once as done
}
