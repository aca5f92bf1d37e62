package indexer

import (
	"github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/internal/config/enums"
	"github.com/microscopium/microscopium/internal/repositories/vector"
	"github.com/rs/zerolog/log"
)

var (
	vectorHandler Handler
)

// VectorIndexer routes upsert and delete batches to the vector backend
// configured for each screen embedding.
type VectorIndexer struct {
	configManager config.Manager
}

func initVectorIndexerHandler() Handler {
	if vectorHandler == nil {
		once.Do(func() {
			vectorHandler = &VectorIndexer{
				configManager: config.NewManager(config.DefaultVersion),
			}
		})
	}
	return vectorHandler
}

func (v *VectorIndexer) Process(event Event) error {
	var err error
	for eventType, data := range event.Data {
		switch eventType {
		case Upsert:
			err = v.bulkUpsert(data)
		case Delete:
			err = v.bulkDelete(data)
		default:
			log.Error().Msgf("Invalid event type: %s", eventType)
		}
	}
	return err
}

func (v *VectorIndexer) bulkUpsert(data []Data) error {
	vectorDbRequest := make(map[enums.VectorDbType]vector.UpsertRequest)
	for _, d := range data {
		embeddingConfig, err := v.configManager.GetEmbeddingConfig(d.Screen, d.Embedding)
		if err != nil {
			log.Error().Msgf("Error getting embedding config for screen %s, embedding %s: %v", d.Screen, d.Embedding, err)
			return err
		}
		if !embeddingConfig.Enabled {
			continue
		}
		request, ok := vectorDbRequest[embeddingConfig.VectorDbType]
		if !ok {
			request = vector.UpsertRequest{Data: make(map[string][]vector.Point)}
			vectorDbRequest[embeddingConfig.VectorDbType] = request
		}
		key := vector.CollectionKey(d.Screen, d.Embedding, d.Version)
		request.Data[key] = append(request.Data[key], vector.Point{
			Id:      d.Id,
			Payload: d.Payload,
			Vector:  d.Vectors,
		})
	}
	for vectorDbType, request := range vectorDbRequest {
		if err := vector.GetRepository(vectorDbType).BulkUpsert(request); err != nil {
			log.Error().Msgf("Error in bulk upsert: %s", err)
			return err
		}
	}
	return nil
}

func (v *VectorIndexer) bulkDelete(data []Data) error {
	vectorDbRequest := make(map[enums.VectorDbType]vector.DeleteRequest)
	for _, d := range data {
		embeddingConfig, err := v.configManager.GetEmbeddingConfig(d.Screen, d.Embedding)
		if err != nil {
			log.Error().Msgf("Error getting embedding config for screen %s, embedding %s: %v", d.Screen, d.Embedding, err)
			return err
		}
		if !embeddingConfig.Enabled {
			continue
		}
		request, ok := vectorDbRequest[embeddingConfig.VectorDbType]
		if !ok {
			request = vector.DeleteRequest{Data: make(map[string][]vector.Point)}
			vectorDbRequest[embeddingConfig.VectorDbType] = request
		}
		key := vector.CollectionKey(d.Screen, d.Embedding, d.Version)
		request.Data[key] = append(request.Data[key], vector.Point{Id: d.Id})
	}
	for vectorDbType, request := range vectorDbRequest {
		if err := vector.GetRepository(vectorDbType).BulkDelete(request); err != nil {
			log.Error().Msgf("Error in bulk delete: %s", err)
			return err
		}
	}
	return nil
}
