package features

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/internal/consumers/handler/indexer"
	"github.com/microscopium/microscopium/internal/repositories/featurestore"
	"github.com/microscopium/microscopium/internal/repositories/fragments"
	"github.com/microscopium/microscopium/internal/repositories/vector"
	"github.com/microscopium/microscopium/pkg/metric"
	"github.com/rs/zerolog/log"
)

var (
	featureConsumer Consumer
	featureOnce     sync.Once
)

const screenColumn = "screen_name"

// FeatureConsumer aggregates per-channel fragments until a sample's vector
// is complete, persists it to the feature store and hands it to the indexer.
type FeatureConsumer struct {
	indexerHandler indexer.Handler
	fragmentsDb    fragments.Database
	featureStore   featurestore.Store
	configManager  config.Manager
}

func newFeatureConsumer() Consumer {
	if featureConsumer == nil {
		featureOnce.Do(func() {
			featureConsumer = &FeatureConsumer{
				indexerHandler: indexer.NewHandler(indexer.VECTOR),
				fragmentsDb:    fragments.NewRepository(fragments.DefaultVersion),
				featureStore:   featurestore.NewRepository(featurestore.DefaultVersion),
				configManager:  config.NewManager(config.DefaultVersion),
			}
		})
	}
	return featureConsumer
}

// Process handles the batch asynchronously. Errors are logged and counted;
// the batch is already committed by the listener.
func (f *FeatureConsumer) Process(events []Event) error {
	go func(events []Event) {
		defer func() {
			if r := recover(); r != nil {
				metric.Count("feature_consumer_panic_event", int64(len(events)), []string{})
				log.Error().Msgf("panic occurred: %v", r)
			}
		}()
		if err := f.ProcessInSequence(events); err != nil {
			log.Error().Err(err).Msg("Error processing feature events")
		}
	}(events)
	return nil
}

func (f *FeatureConsumer) ProcessInSequence(events []Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			metric.Count("feature_consumer_panic_event", int64(len(events)), []string{})
			panicErr := fmt.Errorf("panic occurred: %v", r)
			log.Error().Msgf("%s", panicErr)
			if err == nil {
				err = panicErr
			} else {
				err = errors.Join(err, panicErr)
			}
		}
	}()

	indexerEvent := indexer.Event{
		Data: make(map[indexer.EventType][]indexer.Data),
	}

	if processErr := f.processFeatureEvents(events, indexerEvent); processErr != nil {
		log.Error().Err(processErr).Msg("Error processing feature events")
		return processErr
	}

	if indexerErr := f.indexerHandler.Process(indexerEvent); indexerErr != nil {
		log.Error().Err(indexerErr).Msg("Error processing indexer event")
		return indexerErr
	}

	log.Info().Msgf("Successfully processed feature batch of size %d", len(events))
	return nil
}

func (f *FeatureConsumer) processFeatureEvents(events []Event, indexerEvent indexer.Event) error {
	for _, event := range events {
		screenConfig, err := f.configManager.GetScreenConfig(event.Screen)
		if err != nil {
			log.Error().Msgf("Error getting screen config for %s: %v", event.Screen, err)
			return err
		}
		embeddingConfig, err := f.configManager.GetEmbeddingConfig(event.Screen, event.Embedding)
		if err != nil {
			log.Error().Msgf("Error getting embedding config for %s %s: %v", event.Screen, event.Embedding, err)
			return err
		}
		storeId := screenConfig.StoreId

		if event.Operation == OperationDelete {
			indexerEvent.Data[indexer.Delete] = append(indexerEvent.Data[indexer.Delete], indexer.Data{
				Screen:    event.Screen,
				Embedding: event.Embedding,
				Version:   embeddingConfig.VectorDbWriteVersion,
				Id:        event.SampleId,
			})
			continue
		}

		columns := map[string]interface{}{
			fragments.FragmentColumn(event.Channel): event.Fragment,
			screenColumn:                            event.Screen,
		}
		if err = f.fragmentsDb.Persist(storeId, event.SampleId, columns); err != nil {
			metric.Incr("fragment_persist_error", []string{"screen_name", event.Screen})
			return err
		}

		row, err := f.fragmentsDb.Query(storeId, &fragments.Query{SampleId: event.SampleId})
		if err != nil {
			log.Error().Msgf("Error querying fragments for sample %s: %v", event.SampleId, err)
			return err
		}

		fullVector, complete := assembleVector(screenConfig.Channels, event, row)
		if !complete {
			continue
		}

		payload := featurestore.Payload{
			SampleId:    event.SampleId,
			Features:    fullVector,
			Embedding:   event.Embedding,
			Version:     featurestore.DefaultVersion,
			ToBeIndexed: true,
		}
		if err = f.featureStore.Persist(storeId, 0, payload); err != nil {
			metric.Incr("feature_store_persist_error", []string{
				"screen_name", event.Screen, "embedding_name", event.Embedding, "store_id", storeId,
			})
			return err
		}

		indexerPayload, err := prepareIndexPayload(event, embeddingConfig.VectorDbConfig.Payload)
		if err != nil {
			return err
		}
		indexerEvent.Data[indexer.Upsert] = append(indexerEvent.Data[indexer.Upsert], indexer.Data{
			Screen:    event.Screen,
			Embedding: event.Embedding,
			Version:   embeddingConfig.VectorDbWriteVersion,
			Id:        event.SampleId,
			Payload:   indexerPayload,
			Vectors:   fullVector,
		})
	}
	return nil
}

// assembleVector concatenates fragments in channel order. The second return
// is false while any channel is still missing.
func assembleVector(channels []string, event Event, row map[string]interface{}) ([]float32, bool) {
	expected := event.ChannelCount
	if expected == 0 {
		expected = len(channels)
	}
	present := 0
	var full []float32
	for _, channel := range channels {
		value, ok := row[fragments.FragmentColumn(channel)]
		if !ok || value == nil {
			continue
		}
		fragment, ok := value.([]float32)
		if !ok || len(fragment) == 0 {
			continue
		}
		present++
		full = append(full, fragment...)
	}
	if present < expected {
		return nil, false
	}
	return full, true
}

// prepareIndexPayload converts the event's string payload to typed values
// per the embedding's payload schema. sample_id always rides along.
func prepareIndexPayload(event Event, schema map[string]config.Payload) (map[string]interface{}, error) {
	payload := map[string]interface{}{
		vector.PayloadSampleId: event.SampleId,
	}
	for key, fieldConfig := range schema {
		rawValue, ok := event.Payload[key]
		if !ok {
			continue
		}
		value, err := adaptToPayloadValue(rawValue, fieldConfig.FieldSchema)
		if err != nil {
			log.Error().Msgf("Error adapting payload value for key=%s schema=%s value=%q: %v",
				key, fieldConfig.FieldSchema, rawValue, err)
			return nil, err
		}
		payload[key] = value
	}
	return payload, nil
}

func adaptToPayloadValue(rawValue string, fieldSchema string) (interface{}, error) {
	rawValue = strings.TrimSpace(rawValue)
	fieldSchema = strings.ToLower(strings.TrimSpace(fieldSchema))

	isArray := strings.HasPrefix(rawValue, "[") && strings.HasSuffix(rawValue, "]")

	switch fieldSchema {
	case "keyword":
		if isArray {
			var v []string
			if err := json.Unmarshal([]byte(rawValue), &v); err != nil {
				return nil, err
			}
			return v, nil
		}
		return rawValue, nil

	case "integer":
		if isArray {
			var v []int
			if err := json.Unmarshal([]byte(rawValue), &v); err != nil {
				return nil, err
			}
			return v, nil
		}
		return strconv.Atoi(rawValue)

	case "float":
		return strconv.ParseFloat(rawValue, 64)

	case "boolean":
		return strconv.ParseBool(rawValue)

	default:
		return nil, fmt.Errorf("unsupported field_schema: %s", fieldSchema)
	}
}
