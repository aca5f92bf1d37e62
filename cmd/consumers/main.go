package main

import (
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/microscopium/microscopium/internal/bootstrap"
	"github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/internal/config/enums"
	"github.com/microscopium/microscopium/internal/config/structs"
	"github.com/microscopium/microscopium/internal/consumers/api"
	"github.com/microscopium/microscopium/internal/consumers/listener"
	"github.com/microscopium/microscopium/internal/repositories/vector"
	"github.com/microscopium/microscopium/internal/server"
	"github.com/microscopium/microscopium/pkg/etcd"
	"github.com/microscopium/microscopium/pkg/httpframework"
	mkafka "github.com/microscopium/microscopium/pkg/kafka"
	"github.com/microscopium/microscopium/pkg/logger"
	"github.com/microscopium/microscopium/pkg/metric"
	"github.com/microscopium/microscopium/pkg/profiling"
)

const (
	ScreenWatchPath = "/screen"
)

func main() {
	bootstrap.InitConsumers()
	appConfig := structs.GetAppConfig()
	logger.Init()
	metric.Init()
	etcd.Init(appConfig.Configs.EtcdServer, appConfig.Configs.EtcdUsername,
		appConfig.Configs.EtcdPassword, appConfig.Configs.EtcdWatcherEnabled)
	profiling.Init()

	configManager := config.NewManager(config.DefaultVersion)
	configManager.RegisterWatchPathCallbackWithEvent(ScreenWatchPath, vector.GetRepository(enums.QDRANT).RefreshClients)
	configManager.RegisterWatchPathCallbackWithEvent(ScreenWatchPath, vector.GetRepository(enums.EXHAUSTIVE).RefreshClients)

	// Feature fragment batch consumers
	mkafka.StartConsumers(appConfig.Configs.FeatureConsumerKafkaIds, "features", func(msgs []*kafka.Message, c *kafka.Consumer) error {
		return listener.ProcessFeatureEvents(msgs, c)
	})

	httpframework.Init()
	api.Init()
	server.InitServer(appConfig.Configs.Port)
}
