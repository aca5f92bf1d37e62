package kafka

import (
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// ConsumerRecord holds a single consumed message with a string key.
type ConsumerRecord struct {
	Key            string
	Value          []byte
	TopicPartition kafka.TopicPartition
}

// MessagesToRecords converts raw Kafka messages to ConsumerRecords.
func MessagesToRecords(msgs []*kafka.Message) []ConsumerRecord {
	out := make([]ConsumerRecord, 0, len(msgs))
	for _, m := range msgs {
		key := ""
		if m.Key != nil {
			key = string(m.Key)
		}
		val := m.Value
		if val == nil {
			val = []byte{}
		}
		out = append(out, ConsumerRecord{
			Key:            key,
			Value:          val,
			TopicPartition: m.TopicPartition,
		})
	}
	return out
}
