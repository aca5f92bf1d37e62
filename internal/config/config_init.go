package config

import (
	"log"

	"github.com/microscopium/microscopium/internal/config/structs"
	"github.com/spf13/viper"
)

func InitConfig(appConfig *structs.AppConfig) {
	staticConfig := appConfig.GetStaticConfig()
	cfg, ok := staticConfig.(*structs.Configs)
	if !ok {
		log.Fatal("Failed to cast static config to *Configs")
	}
	bindEnvVars()
	if err := viper.Unmarshal(cfg); err != nil {
		log.Fatalf("Failed to unmarshal config from environment: %v", err)
	}
}

func bindEnvVars() {
	viper.BindEnv("app_name", "APP_NAME")
	viper.BindEnv("app_env", "APP_ENV")
	viper.BindEnv("auth_tokens", "AUTH_TOKENS")
	viper.BindEnv("port", "PORT")
	viper.BindEnv("feature_consumer_kafka_ids", "FEATURE_CONSUMER_KAFKA_IDS")
	viper.BindEnv("indexer_producer_kafka_id", "INDEXER_PRODUCER_KAFKA_ID")
	viper.BindEnv("etcd_username", "ETCD_USERNAME")
	viper.BindEnv("etcd_password", "ETCD_PASSWORD")
	viper.BindEnv("etcd_server", "ETCD_SERVER")
	viper.BindEnv("etcd_watcher_enabled", "ETCD_WATCHER_ENABLED")
	viper.BindEnv("storage_feature_db_count", "STORAGE_FEATURE_DB_COUNT")
	viper.BindEnv("cache_metric_enabled", "CACHE_METRIC_ENABLED")
	viper.BindEnv("cache_metric_interval_sec", "CACHE_METRIC_INTERVAL_SEC")
}
