package similar

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/internal/config/structs"
	"github.com/microscopium/microscopium/internal/repositories"
	"github.com/microscopium/microscopium/internal/repositories/distributedcache"
	"github.com/microscopium/microscopium/internal/repositories/featurestore"
	"github.com/microscopium/microscopium/internal/repositories/inmemorycache"
	"github.com/microscopium/microscopium/internal/repositories/vector"
	"github.com/microscopium/microscopium/pkg/metric"
	"github.com/rs/zerolog/log"
)

type HandlerV1 struct {
	featureStore     featurestore.Store
	configManager    config.Manager
	inMemCache       inmemorycache.Database
	distributedCache distributedcache.Database
}

const RequestTypeSimilarSample = "similar_sample"

var appConfig structs.Configs

func InitV1() *HandlerV1 {
	if handlerV1 == nil {
		once.Do(func() {
			appConfig = structs.GetAppConfig().Configs
			handlerV1 = &HandlerV1{
				featureStore:     featurestore.NewRepository(featurestore.DefaultVersion),
				configManager:    config.NewManager(config.DefaultVersion),
				inMemCache:       inmemorycache.NewRepository(inmemorycache.DefaultVersion),
				distributedCache: distributedcache.NewRepository(distributedcache.DefaultVersion),
			}
		})
	}
	return handlerV1
}

// GetSimilarSamples handles POST /api/v1/screens/:screen/similar.
func (h *HandlerV1) GetSimilarSamples(c *gin.Context) {
	startTime := time.Now()
	screen := c.Param("screen")

	var request SimilarRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	commonMetricTags := []string{
		"screen_name", screen,
		"embedding_name", request.Embedding,
		"request_type", RequestTypeSimilarSample,
	}
	metric.Incr("similar_sample_request", commonMetricTags)
	metric.Gauge("similar_sample_request_limit", float64(request.Limit), commonMetricTags)

	if isValid, msg := validateSimilarRequest(&request); !isValid {
		metric.Incr("similar_sample_request_4xx", commonMetricTags)
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	screenConfig, err := h.configManager.GetScreenConfig(screen)
	if err != nil {
		metric.Incr("similar_sample_request_4xx", commonMetricTags)
		log.Error().Msgf("SimilarSample Request Failed: unknown screen %s: %v", screen, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown screen"})
		return
	}
	embeddingConfig, err := h.configManager.GetEmbeddingConfig(screen, request.Embedding)
	if err != nil {
		metric.Incr("similar_sample_request_4xx", commonMetricTags)
		log.Error().Msgf("SimilarSample Request Failed: unknown embedding %s for screen %s: %v", request.Embedding, screen, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown embedding"})
		return
	}
	if !embeddingConfig.Enabled {
		c.JSON(http.StatusNotFound, gin.H{"error": "embedding is not enabled"})
		return
	}

	adaptedRequest := adaptSimilarRequestToStruct(screen, &request)
	response, err := h.RetrieveSimilarSamples(adaptedRequest, screenConfig, embeddingConfig, commonMetricTags)
	if err != nil {
		metric.Incr("similar_sample_request_5xx", commonMetricTags)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	metric.Timing("similar_sample_latency", time.Since(startTime), commonMetricTags)
	c.JSON(http.StatusOK, response)
}

// RetrieveSimilarSamples resolves the request through the cache tiers:
// in-memory, then Redis, then the feature store plus vector backend, with
// an async write-back of fresh results.
func (h *HandlerV1) RetrieveSimilarSamples(request StructRequest, screenConfig *config.Screen,
	embeddingConfig *config.Embedding, commonMetricTags []string) (*SimilarResponse, error) {
	isEmbeddingsRequest := len(request.Embeddings) > 0
	var cacheKeys map[string]repositories.CacheStruct
	var expectedLength int
	if isEmbeddingsRequest {
		cacheKeys = GetCacheKeysForEmbeddings(request)
		expectedLength = len(request.Embeddings)
	} else {
		cacheKeys = GetCacheKeysForSampleIds(request)
		expectedLength = len(request.SampleIds)
	}

	responseMap := make(map[string]responseEntry, len(cacheKeys))
	missingInMemoryCacheKeys := make(map[string]repositories.CacheStruct, len(cacheKeys))

	if embeddingConfig.InMemoryCachingEnabled {
		inMemResponseMap := h.inMemCache.MGet(cacheKeys, commonMetricTags)
		missingInMemoryCacheKeys = ProcessCacheResponse(cacheKeys, inMemResponseMap, responseMap,
			request.Limit, commonMetricTags, "in_memory")
	}

	missingDistributedCacheKeys := make(map[string]repositories.CacheStruct, len(cacheKeys))
	if len(cacheKeys) > 0 && embeddingConfig.DistributedCachingEnabled {
		distResponseMap, err := h.distributedCache.MGet(cacheKeys, commonMetricTags)
		if err != nil {
			log.Error().Msgf("SimilarSample Request Failed: error fetching from distributed cache: %v", err)
			return nil, err
		}
		missingDistributedCacheKeys = ProcessCacheResponse(cacheKeys, distResponseMap, responseMap,
			request.Limit, commonMetricTags, "distributed")
	}

	if len(cacheKeys) > 0 {
		if !isEmbeddingsRequest {
			err := h.featureStore.BulkQuery(screenConfig.StoreId, &featurestore.BulkQuery{
				CacheKeys: cacheKeys,
				Screen:    request.Screen,
				Embedding: request.Embedding,
				Version:   featurestore.DefaultVersion,
			})
			if err != nil {
				log.Error().Msgf("SimilarSample Request Failed: error fetching vectors from feature store: %v", err)
				return nil, err
			}
		}
		batchQueryRequest := buildVectorBatchQuery(request, embeddingConfig, cacheKeys, responseMap, isEmbeddingsRequest)
		batchQueryResponse, err := vector.GetRepository(embeddingConfig.VectorDbType).
			BatchQuery(batchQueryRequest, commonMetricTags)
		if err != nil {
			log.Error().Err(err).Msgf("SimilarSample Request Failed: error querying vector backend %s", embeddingConfig.VectorDbType)
			return nil, err
		}
		parseVectorDbResponse(cacheKeys, batchQueryResponse, responseMap, request.Limit, isEmbeddingsRequest)
	}

	go func() {
		if embeddingConfig.DistributedCachingEnabled && len(missingDistributedCacheKeys) > 0 {
			byteResponseMap := marshalResponseMap(responseMap, missingDistributedCacheKeys)
			h.distributedCache.MSet(byteResponseMap, missingDistributedCacheKeys,
				embeddingConfig.DistributedCacheTTLSeconds, commonMetricTags)
		}
		if embeddingConfig.InMemoryCachingEnabled && len(missingInMemoryCacheKeys) > 0 {
			byteResponseMap := marshalResponseMap(responseMap, missingInMemoryCacheKeys)
			h.inMemCache.MSet(byteResponseMap, missingInMemoryCacheKeys,
				embeddingConfig.InMemoryCacheTTLSeconds, commonMetricTags)
		}
	}()

	return &SimilarResponse{Responses: generateResponse(responseMap, expectedLength)}, nil
}
