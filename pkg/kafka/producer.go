package kafka

import (
	"fmt"
	"sync"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	kafkaConf "github.com/microscopium/microscopium/internal/config"
	"github.com/rs/zerolog/log"
)

// ProducerMessage is a single message to produce.
type ProducerMessage struct {
	Key     *string
	Value   []byte
	Headers map[string][]byte
}

// producerEntry maps a kafka ID to a shared confluent producer and a topic.
// IDs that share broker and auth reuse one *kafka.Producer.
type producerEntry struct {
	producer *kafka.Producer
	topic    string
}

func (pe *producerEntry) produce(msgs []ProducerMessage) error {
	for _, m := range msgs {
		kafkaMsg := &kafka.Message{
			TopicPartition: kafka.TopicPartition{
				Topic:     &pe.topic,
				Partition: kafka.PartitionAny,
			},
			Value: m.Value,
		}
		if m.Key != nil {
			kafkaMsg.Key = []byte(*m.Key)
		}
		for k, v := range m.Headers {
			kafkaMsg.Headers = append(kafkaMsg.Headers, kafka.Header{Key: k, Value: v})
		}
		if err := pe.producer.Produce(kafkaMsg, nil); err != nil {
			return fmt.Errorf("kafka produce error: %w", err)
		}
	}
	return nil
}

var (
	entries  = make(map[string]*producerEntry)
	clusters = make(map[string]*kafka.Producer)
	mu       sync.RWMutex
)

func clusterKey(cfg *kafkaConf.ProducerConfig) string {
	return cfg.BootstrapURLs + "|" + cfg.SecurityProtocol + "|" + cfg.SaslMechanism + "|" + cfg.SaslUsername
}

func newConfluentProducer(cfg *kafkaConf.ProducerConfig) (*kafka.Producer, error) {
	configMap := kafka.ConfigMap{
		"bootstrap.servers": cfg.BootstrapURLs,
		"client.id":         cfg.ClientID,
	}
	if cfg.SecurityProtocol != "" {
		configMap["security.protocol"] = cfg.SecurityProtocol
	}
	if cfg.SaslMechanism != "" {
		configMap["sasl.mechanism"] = cfg.SaslMechanism
	}
	if cfg.SaslUsername != "" {
		configMap["sasl.username"] = cfg.SaslUsername
	}
	if cfg.SaslPassword != "" {
		configMap["sasl.password"] = cfg.SaslPassword
	}

	p, err := kafka.NewProducer(&configMap)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	// Drain delivery reports so Produce never blocks on a full events channel.
	go func() {
		for e := range p.Events() {
			if ev, ok := e.(*kafka.Message); ok && ev.TopicPartition.Error != nil {
				log.Error().Err(ev.TopicPartition.Error).
					Str("topic", *ev.TopicPartition.Topic).
					Msg("kafka delivery failed")
			}
		}
	}()

	return p, nil
}

// InitProducer builds a ProducerConfig from env prefix KAFKA_PRODUCER_<id> and
// registers the id to topic mapping. Idempotent per id.
func InitProducer(kafkaId string) {
	mu.RLock()
	_, exists := entries[kafkaId]
	mu.RUnlock()
	if exists {
		return
	}

	cfg, err := kafkaConf.NewKafkaConfig().BuildProducerConfigFromEnv("KAFKA_PRODUCER_" + kafkaId)
	if err != nil {
		log.Error().Err(err).Str("kafkaId", kafkaId).Msg("failed to build producer config")
		return
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := entries[kafkaId]; exists {
		return
	}

	key := clusterKey(cfg)
	p, ok := clusters[key]
	if !ok {
		p, err = newConfluentProducer(cfg)
		if err != nil {
			log.Error().Err(err).Str("kafkaId", kafkaId).Msg("failed to create kafka producer")
			return
		}
		clusters[key] = p
	}

	entries[kafkaId] = &producerEntry{producer: p, topic: cfg.Topics}
	log.Info().Str("kafkaId", kafkaId).Str("topic", cfg.Topics).Msg("kafka producer registered")
}

// SendAndForget produces messages to the topic registered for kafkaId.
func SendAndForget(kafkaId string, msgs []ProducerMessage) error {
	mu.RLock()
	entry, ok := entries[kafkaId]
	mu.RUnlock()
	if !ok {
		return fmt.Errorf("producer not initialised for kafkaId=%s", kafkaId)
	}
	return entry.produce(msgs)
}
