package structs

var (
	appConfig AppConfig
)

type AppConfig struct {
	Configs Configs
}

func (cfg *AppConfig) GetStaticConfig() interface{} {
	return &cfg.Configs
}

func GetAppConfig() *AppConfig {
	return &appConfig
}

type Configs struct {
	AppName                 string `mapstructure:"app_name"`
	AppEnv                  string `mapstructure:"app_env"`
	AuthTokens              string `mapstructure:"auth_tokens"`
	Port                    int    `mapstructure:"port"`
	FeatureConsumerKafkaIds string `mapstructure:"feature_consumer_kafka_ids"`
	IndexerProducerKafkaId  string `mapstructure:"indexer_producer_kafka_id"`
	EtcdUsername            string `mapstructure:"etcd_username"`
	EtcdPassword            string `mapstructure:"etcd_password"`
	EtcdServer              string `mapstructure:"etcd_server"`
	EtcdWatcherEnabled      bool   `mapstructure:"etcd_watcher_enabled"`
	StorageFeatureDbCount   int    `mapstructure:"storage_feature_db_count"`
	CacheMetricEnabled      bool   `mapstructure:"cache_metric_enabled"`
	CacheMetricIntervalSec  int    `mapstructure:"cache_metric_interval_sec"`
}
