package bootstrap

import (
	"github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/internal/config/structs"
	"github.com/microscopium/microscopium/internal/repositories/distributedcache"
	"github.com/microscopium/microscopium/internal/repositories/featurestore"
	"github.com/microscopium/microscopium/internal/repositories/fragments"
	"github.com/microscopium/microscopium/internal/server/middlewares"
)

func Init() {
	config.InitConfig(structs.GetAppConfig())
	config.Init()
	featurestore.Init()
}

func InitServing() {
	Init()
	middlewares.Init()
	distributedcache.Init()
}

func InitConsumers() {
	Init()
	fragments.Init()
}
