package main

import (
	"github.com/microscopium/microscopium/internal/bootstrap"
	"github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/internal/config/enums"
	"github.com/microscopium/microscopium/internal/config/structs"
	"github.com/microscopium/microscopium/internal/repositories/vector"
	"github.com/microscopium/microscopium/internal/server"
	"github.com/microscopium/microscopium/internal/server/api"
	"github.com/microscopium/microscopium/pkg/etcd"
	"github.com/microscopium/microscopium/pkg/httpframework"
	"github.com/microscopium/microscopium/pkg/infra"
	"github.com/microscopium/microscopium/pkg/logger"
	"github.com/microscopium/microscopium/pkg/metric"
	"github.com/microscopium/microscopium/pkg/profiling"
	"github.com/microscopium/microscopium/pkg/tracing"
)

const (
	ScreenWatchPath = "/screen"
)

func main() {
	bootstrap.InitServing()
	appConfig := structs.GetAppConfig()
	logger.Init()
	metric.Init()
	tracing.Init()
	infra.InitRedis()
	profiling.Init()
	etcd.Init(appConfig.Configs.EtcdServer, appConfig.Configs.EtcdUsername,
		appConfig.Configs.EtcdPassword, appConfig.Configs.EtcdWatcherEnabled)

	configManager := config.NewManager(config.DefaultVersion)
	configManager.RegisterWatchPathCallbackWithEvent(ScreenWatchPath, vector.GetRepository(enums.QDRANT).RefreshClients)
	configManager.RegisterWatchPathCallbackWithEvent(ScreenWatchPath, vector.GetRepository(enums.EXHAUSTIVE).RefreshClients)

	httpframework.Init()
	api.Init()
	server.InitServer(appConfig.Configs.Port)
}
