package similar

import (
	"encoding/json"

	"github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/internal/repositories"
	"github.com/microscopium/microscopium/internal/repositories/vector"
	"github.com/microscopium/microscopium/pkg/metric"
	"github.com/rs/zerolog/log"
)

type responseEntry struct {
	Index []int
	Hits  SampleHits
}

func adaptSimilarRequestToStruct(screen string, r *SimilarRequest) StructRequest {
	return StructRequest{
		Screen:     screen,
		Embedding:  r.Embedding,
		SampleIds:  r.SampleIds,
		Embeddings: r.Embeddings,
		Limit:      r.Limit,
		Payload:    r.Payload,
	}
}

// buildVectorBatchQuery turns the still-missing cache keys into one batch
// query. Keys whose embedding could not be resolved get an empty result.
// Id lookups over-fetch by one so the sample itself can be dropped.
func buildVectorBatchQuery(request StructRequest, embeddingConfig *config.Embedding,
	cacheKeys map[string]repositories.CacheStruct, responseMap map[string]responseEntry,
	isEmbeddingsRequest bool) *vector.BatchQueryRequest {
	queries := make([]*vector.QueryDetails, 0, len(cacheKeys))
	limit := int32(request.Limit)
	if !isEmbeddingsRequest {
		limit++
	}
	for key, cacheStruct := range cacheKeys {
		if len(cacheStruct.Embedding) == 0 {
			responseMap[key] = responseEntry{
				Index: cacheStruct.Index,
				Hits:  SampleHits{Samples: []Sample{}},
			}
			continue
		}
		queries = append(queries, &vector.QueryDetails{
			CacheKey:  key,
			Embedding: cacheStruct.Embedding,
			Limit:     limit,
			Payload:   request.Payload,
		})
	}
	return &vector.BatchQueryRequest{
		Screen:      request.Screen,
		Embedding:   request.Embedding,
		Version:     embeddingConfig.VectorDbReadVersion,
		RequestList: queries,
	}
}

func parseVectorDbResponse(keys map[string]repositories.CacheStruct, batchResp *vector.BatchQueryResponse,
	responseMap map[string]responseEntry, limit int, isEmbeddingsRequest bool) {
	for key, hits := range batchResp.SimilarSamplesList {
		samples := make([]Sample, 0, len(hits))
		for _, hit := range hits {
			if !isEmbeddingsRequest && hit.Id == keys[key].SampleId {
				continue
			}
			samples = append(samples, Sample{
				Id:      hit.Id,
				Score:   hit.Score,
				Payload: hit.Payload,
			})
		}
		if len(samples) > limit {
			samples = samples[:limit:limit]
		}
		responseMap[key] = responseEntry{
			Index: keys[key].Index,
			Hits:  SampleHits{Samples: samples},
		}
	}
}

// ProcessCacheResponse folds cached hits into the response map and returns
// the keys the next tier still has to resolve. Hit keys are removed from
// the working set.
func ProcessCacheResponse(keys map[string]repositories.CacheStruct, cachedData map[string][]byte,
	responseMap map[string]responseEntry, limit int, commonMetricTags []string, cacheType string) map[string]repositories.CacheStruct {
	missingCacheKeys := make(map[string]repositories.CacheStruct, len(keys))
	for key := range keys {
		raw, ok := cachedData[key]
		if !ok {
			missingCacheKeys[key] = keys[key]
			metric.Incr(cacheType+"_similar_cache_miss", commonMetricTags)
			continue
		}
		var hits SampleHits
		if err := json.Unmarshal(raw, &hits); err != nil {
			log.Error().Err(err).Msg("failed to unmarshal cached similar samples")
			missingCacheKeys[key] = keys[key]
			continue
		}
		if len(hits.Samples) > limit {
			hits.Samples = hits.Samples[:limit:limit]
		}
		responseMap[key] = responseEntry{
			Index: keys[key].Index,
			Hits:  hits,
		}
		delete(keys, key)
		metric.Incr(cacheType+"_similar_cache_hit", commonMetricTags)
	}
	return missingCacheKeys
}

// marshalResponseMap serializes fresh results for cache write-back.
func marshalResponseMap(responseMap map[string]responseEntry,
	missingCacheKeys map[string]repositories.CacheStruct) map[string][]byte {
	byteResponseMap := make(map[string][]byte, len(missingCacheKeys))
	for key := range missingCacheKeys {
		entry, ok := responseMap[key]
		if !ok {
			continue
		}
		raw, err := json.Marshal(entry.Hits)
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal similar samples for caching")
			continue
		}
		byteResponseMap[key] = raw
	}
	return byteResponseMap
}

func generateResponse(responseMap map[string]responseEntry, expectedLength int) []SampleHits {
	responses := make([]SampleHits, expectedLength)
	for _, entry := range responseMap {
		for _, index := range entry.Index {
			responses[index] = entry.Hits
		}
	}
	return responses
}
