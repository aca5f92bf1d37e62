package kafka

import (
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	kafkaConf "github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/pkg/metric"
	"github.com/rs/zerolog/log"
)

const (
	bootstrapServers     = "bootstrap.servers"
	groupID              = "group.id"
	autoOffsetReset      = "auto.offset.reset"
	reBalanceEnable      = "go.application.rebalance.enable"
	enableAutoCommit     = "enable.auto.commit"
	autoCommitIntervalMs = "auto.commit.interval.ms"
	saslUsername         = "sasl.username"
	saslPassword         = "sasl.password"
	saslMechanism        = "sasl.mechanisms"
	securityProtocol     = "security.protocol"
	clientId             = "client.id"

	defaultFlushInterval = 30 * time.Second
)

// BatchHandler processes a batch of raw Kafka messages.
// Return nil on success (the listener commits); return error to seek back
// so the batch is re-delivered.
type BatchHandler func(msgs []*kafka.Message, c *kafka.Consumer) error

type Listener struct {
	consumers    []*kafka.Consumer
	kafkaConfig  *kafkaConf.KafkaConfig
	sigChan      chan os.Signal
	batchHandler BatchHandler
}

// StartConsumers builds a KafkaConfig per comma-separated kafka ID from env
// prefix KAFKA_<id> and starts a Listener with the given handler.
func StartConsumers(kafkaIds string, consumerName string, handler BatchHandler) {
	for _, kafkaId := range strings.Split(kafkaIds, ",") {
		kafkaId = strings.TrimSpace(kafkaId)
		if kafkaId == "" {
			continue
		}
		cfg, err := kafkaConf.NewKafkaConfig().BuildConfigFromEnv("KAFKA_" + kafkaId)
		if err != nil {
			log.Error().Err(err).Msgf("Failed to build kafka config for %s (kafkaId=%s)", consumerName, kafkaId)
			continue
		}
		log.Info().Str("topics", cfg.Topics).Str("bootstrap", cfg.BootstrapURLs).Str("group", cfg.GroupID).
			Msgf("Starting %s consumer kafkaId=%s", consumerName, kafkaId)
		l := NewListener(cfg, handler)
		l.Init()
		l.Consume()
	}
}

func NewListener(cfg *kafkaConf.KafkaConfig, batchHandler BatchHandler) *Listener {
	return &Listener{
		kafkaConfig:  cfg,
		batchHandler: batchHandler,
	}
}

func (l *Listener) Init() {
	for i := 0; i < l.kafkaConfig.Concurrency; i++ {
		configMap := &kafka.ConfigMap{
			bootstrapServers:     l.kafkaConfig.BootstrapURLs,
			groupID:              l.kafkaConfig.GroupID,
			autoOffsetReset:      l.kafkaConfig.AutoOffsetReset,
			reBalanceEnable:      l.kafkaConfig.ReBalanceEnable,
			enableAutoCommit:     l.kafkaConfig.AutoCommitEnable,
			autoCommitIntervalMs: l.kafkaConfig.AutoCommitIntervalInMs,
			clientId:             l.kafkaConfig.ClientID + "-" + strconv.Itoa(i),
		}
		if l.kafkaConfig.SecurityProtocol != "" {
			(*configMap)[securityProtocol] = l.kafkaConfig.SecurityProtocol
		}
		if l.kafkaConfig.SaslMechanism != "" {
			(*configMap)[saslMechanism] = l.kafkaConfig.SaslMechanism
		}
		if l.kafkaConfig.SaslUsername != "" {
			(*configMap)[saslUsername] = l.kafkaConfig.SaslUsername
		}
		if l.kafkaConfig.SaslPassword != "" {
			(*configMap)[saslPassword] = l.kafkaConfig.SaslPassword
		}
		consumer, err := kafka.NewConsumer(configMap)
		if err != nil {
			log.Panic().Err(err).Msg("Failed to create Kafka consumer")
		}
		topics := splitAndTrimTopics(l.kafkaConfig.Topics)
		if err = consumer.SubscribeTopics(topics, nil); err != nil {
			log.Panic().Err(err).Msgf("Failed to subscribe to topics %v", topics)
		}
		l.consumers = append(l.consumers, consumer)
	}
	l.sigChan = make(chan os.Signal, 1)
	signal.Notify(l.sigChan, syscall.SIGINT, syscall.SIGTERM)
}

func (l *Listener) Consume() {
	flushInterval := defaultFlushInterval
	if l.kafkaConfig.FlushIntervalInMs > 0 {
		flushInterval = time.Duration(l.kafkaConfig.FlushIntervalInMs) * time.Millisecond
	}
	for i, c := range l.consumers {
		consumer := c
		log.Info().Msgf("Starting consumption loop %d for group %s", i, l.kafkaConfig.GroupID)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Msgf("Recovered from panic in consumer loop: %v", r)
					partitions, _ := consumer.Assignment()
					if _, err := consumer.SeekPartitions(partitions); err != nil {
						log.Error().Err(err).Msg("Failed to seek partitions after panic")
					}
					metric.Incr("consumer_panic", []string{"group:" + l.kafkaConfig.GroupID, "client:" + l.kafkaConfig.ClientID})
				}
			}()
			run := true
			messages := make([]*kafka.Message, 0, l.kafkaConfig.BatchSize)
			flushTimer := time.NewTicker(flushInterval)
			defer flushTimer.Stop()

			for run {
				select {
				case <-l.sigChan:
					log.Info().Msgf("Terminating consumer for group %s", l.kafkaConfig.GroupID)
					if len(messages) > 0 {
						l.processBatch(consumer, messages)
					}
					if err := consumer.Unsubscribe(); err != nil {
						log.Error().Err(err).Msg("Error while unsubscribing topic")
					}
					if err := consumer.Close(); err != nil {
						log.Error().Err(err).Msg("Error while closing consumer")
					}
					run = false

				case <-flushTimer.C:
					if len(messages) > 0 {
						log.Info().Int("msgCount", len(messages)).Msg("Flushing batch on interval")
						l.processBatch(consumer, messages)
						messages = messages[:0]
					}

				default:
					ev := consumer.Poll(l.kafkaConfig.PollTimeout)
					if ev == nil {
						continue
					}
					switch e := ev.(type) {
					case *kafka.Message:
						metric.Incr("events_consumed", []string{
							"topic:" + *e.TopicPartition.Topic,
							"group:" + l.kafkaConfig.GroupID,
							"client:" + l.kafkaConfig.ClientID,
						})
						messages = append(messages, e)
						if len(messages) == l.kafkaConfig.BatchSize {
							l.processBatch(consumer, messages)
							messages = messages[:0]
						}

					case kafka.Error:
						if e.IsFatal() {
							log.Error().Err(e).Msg("Fatal Kafka error, shutting down consumer")
							if len(messages) > 0 {
								l.processBatch(consumer, messages)
							}
							run = false
						} else {
							log.Error().Err(e).Msg("Non-fatal Kafka error")
						}

					default:
						log.Debug().Msgf("Ignored event: %#v", e)
					}
				}
			}
		}()
	}
}

func (l *Listener) processBatch(consumer *kafka.Consumer, messages []*kafka.Message) {
	if len(messages) == 0 {
		return
	}
	if err := l.batchHandler(messages, consumer); err != nil {
		log.Error().Err(err).Msg("Batch processing failed, seeking back")
		seen := make(map[kafka.TopicPartition]struct{})
		topicPartitions := make([]kafka.TopicPartition, 0, len(messages))
		for _, m := range messages {
			if _, ok := seen[m.TopicPartition]; ok {
				continue
			}
			seen[m.TopicPartition] = struct{}{}
			topicPartitions = append(topicPartitions, m.TopicPartition)
		}
		if _, seekErr := consumer.SeekPartitions(topicPartitions); seekErr != nil {
			log.Error().Err(seekErr).Msg("Failed to seek partitions")
		}
		return
	}
	if !l.kafkaConfig.AutoCommitEnable {
		if _, err := consumer.Commit(); err != nil {
			log.Error().Err(err).Msg("Failed to commit")
		}
	}
}

// splitAndTrimTopics splits a comma-separated topic list and trims spaces.
func splitAndTrimTopics(topicsStr string) []string {
	parts := strings.Split(topicsStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
