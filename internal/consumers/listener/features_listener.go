package listener

import (
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/microscopium/microscopium/internal/consumers/listener/features"
	mkafka "github.com/microscopium/microscopium/pkg/kafka"
	"github.com/microscopium/microscopium/pkg/metric"
	"github.com/rs/zerolog/log"
)

// ProcessFeatureEvents is the batch handler for the feature ingestion
// topics. Malformed records are skipped, not retried.
func ProcessFeatureEvents(msgs []*kafka.Message, c *kafka.Consumer) error {
	featureConsumer := features.NewConsumer(features.DefaultVersion)
	records := mkafka.MessagesToRecords(msgs)
	var events []features.Event

	for _, r := range records {
		var event features.Event
		if err := json.Unmarshal(r.Value, &event); err != nil {
			log.Error().Msgf("Error in JSON deserialization: %s", err)
			continue
		}
		metric.Incr("feature_consumer_event", []string{
			"screen_name", event.Screen,
			"embedding_name", event.Embedding,
			"channel", event.Channel,
		})
		events = append(events, event)
	}

	if err := featureConsumer.Process(events); err != nil {
		log.Error().Msgf("Error in processing feature events: %v", err)
		return err
	}
	return nil
}

// ProcessFeatureEventsInSequence is the synchronous variant, used when
// ordering matters more than throughput.
func ProcessFeatureEventsInSequence(msgs []*kafka.Message, c *kafka.Consumer) error {
	featureConsumer := features.NewConsumer(features.DefaultVersion)
	records := mkafka.MessagesToRecords(msgs)
	var events []features.Event

	for _, r := range records {
		var event features.Event
		if err := json.Unmarshal(r.Value, &event); err != nil {
			log.Error().Msgf("Error in JSON deserialization: %s", err)
			continue
		}
		events = append(events, event)
	}

	if err := featureConsumer.ProcessInSequence(events); err != nil {
		log.Error().Msgf("Error in processing feature events: %v", err)
		return err
	}
	return nil
}
