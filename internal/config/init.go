package config

import (
	"sync"

	"github.com/microscopium/microscopium/internal/config/structs"
)

var (
	manager  Manager
	once     sync.Once
	appName  string
	initOnce sync.Once

	DefaultVersion = 1
)

func Init() {
	initOnce.Do(func() {
		appName = structs.GetAppConfig().Configs.AppName
	})
}

// NewManager returns the screen-config manager singleton for the version.
func NewManager(version int) Manager {
	switch version {
	case DefaultVersion:
		return initMicroscopiumManager()
	default:
		return nil
	}
}

// SetInstance swaps the singleton. Tests only.
func SetInstance(provider Manager) {
	manager = provider
	once.Do(func() {})
}
