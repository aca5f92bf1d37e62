package fragments

import (
	"sync"

	"github.com/microscopium/microscopium/internal/config/structs"
)

var (
	DefaultVersion = 1
	appConfig      structs.Configs
	initOnce       sync.Once
)

func Init() {
	initOnce.Do(func() {
		appConfig = structs.GetAppConfig().Configs
	})
}

func NewRepository(version int) Database {
	switch version {
	case DefaultVersion:
		return initFragmentsDb()
	default:
		return nil
	}
}

// SetInstance swaps the singleton. Tests only.
func SetInstance(db Database) {
	fragmentsDb = db
	once.Do(func() {})
}
