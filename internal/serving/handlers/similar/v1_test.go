package similar

import (
	"encoding/json"
	"testing"

	"github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/internal/config/enums"
	"github.com/microscopium/microscopium/internal/repositories/distributedcache"
	"github.com/microscopium/microscopium/internal/repositories/featurestore"
	"github.com/microscopium/microscopium/internal/repositories/inmemorycache"
	"github.com/microscopium/microscopium/internal/repositories/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testScreenConfig() *config.Screen {
	return &config.Screen{StoreId: "1", Channels: []string{"dapi"}}
}

func testEmbeddingConfig(inMem, distributed bool) *config.Embedding {
	return &config.Embedding{
		Enabled:                    true,
		Dimension:                  2,
		Distance:                   enums.EUCLIDEAN,
		VectorDbType:               enums.EXHAUSTIVE,
		VectorDbReadVersion:        1,
		InMemoryCachingEnabled:     inMem,
		InMemoryCacheTTLSeconds:    60,
		DistributedCachingEnabled:  distributed,
		DistributedCacheTTLSeconds: 300,
	}
}

func TestRetrieveSimilarSamplesBySampleId(t *testing.T) {
	featureStore := new(featurestore.MockStore)
	manager := new(config.MockConfigManager)
	handler := SetMockSimilarHandler(featureStore, manager, nil, nil)

	request := StructRequest{
		Screen:    "bbbc021",
		Embedding: "tsne",
		SampleIds: []string{"A01"},
		Limit:     2,
	}
	cacheKeys := GetCacheKeysForSampleIds(request)
	var cacheKey string
	for k := range cacheKeys {
		cacheKey = k
	}

	featureStore.On("BulkQuery", "1", mock.Anything).Run(func(args mock.Arguments) {
		bulkQuery := args.Get(1).(*featurestore.BulkQuery)
		for key, cacheStruct := range bulkQuery.CacheKeys {
			cacheStruct.Embedding = []float32{0, 0}
			bulkQuery.CacheKeys[key] = cacheStruct
		}
	}).Return(nil)

	mockDb := new(vector.MockDatabase)
	mockDb.On("BatchQuery", mock.Anything, mock.Anything).Return(&vector.BatchQueryResponse{
		SimilarSamplesList: map[string][]*vector.SimilarSample{
			cacheKey: {
				{Id: "A01", Score: 0},
				{Id: "A02", Score: 0.5},
				{Id: "B01", Score: 1.2},
			},
		},
	}, nil)
	vector.SetTestInstances(nil, mockDb)

	response, err := handler.RetrieveSimilarSamples(request, testScreenConfig(), testEmbeddingConfig(false, false), nil)
	require.NoError(t, err)
	require.Len(t, response.Responses, 1)

	// the query sample itself is dropped from its own neighbours
	samples := response.Responses[0].Samples
	require.Len(t, samples, 2)
	assert.Equal(t, "A02", samples[0].Id)
	assert.Equal(t, "B01", samples[1].Id)
}

func TestRetrieveSimilarSamplesInMemoryCacheHit(t *testing.T) {
	featureStore := new(featurestore.MockStore)
	manager := new(config.MockConfigManager)
	inMemCache := new(inmemorycache.MockDatabase)
	handler := SetMockSimilarHandler(featureStore, manager, inMemCache, nil)

	request := StructRequest{
		Screen:    "bbbc021",
		Embedding: "tsne",
		SampleIds: []string{"A01"},
		Limit:     5,
	}
	cacheKeys := GetCacheKeysForSampleIds(request)
	var cacheKey string
	for k := range cacheKeys {
		cacheKey = k
	}
	cached, err := json.Marshal(SampleHits{Samples: []Sample{{Id: "A02", Score: 0.5}}})
	require.NoError(t, err)

	inMemCache.On("MGet", mock.Anything, mock.Anything).Return(map[string][]byte{cacheKey: cached})

	mockDb := new(vector.MockDatabase)
	vector.SetTestInstances(nil, mockDb)

	response, err := handler.RetrieveSimilarSamples(request, testScreenConfig(), testEmbeddingConfig(true, false), nil)
	require.NoError(t, err)
	require.Len(t, response.Responses, 1)
	assert.Equal(t, "A02", response.Responses[0].Samples[0].Id)

	featureStore.AssertNotCalled(t, "BulkQuery", mock.Anything, mock.Anything)
	mockDb.AssertNotCalled(t, "BatchQuery", mock.Anything, mock.Anything)
}

func TestRetrieveSimilarSamplesWriteBack(t *testing.T) {
	featureStore := new(featurestore.MockStore)
	manager := new(config.MockConfigManager)
	distCache := new(distributedcache.MockDatabase)
	handler := SetMockSimilarHandler(featureStore, manager, nil, distCache)

	request := StructRequest{
		Screen:     "bbbc021",
		Embedding:  "tsne",
		Embeddings: [][]float32{{1, 1}},
		Limit:      1,
	}
	cacheKeys := GetCacheKeysForEmbeddings(request)
	var cacheKey string
	for k := range cacheKeys {
		cacheKey = k
	}

	distCache.On("MGet", mock.Anything, mock.Anything).Return(map[string][]byte{}, nil)
	msetDone := make(chan struct{})
	distCache.On("MSet", mock.Anything, mock.Anything, 300, mock.Anything).Run(func(args mock.Arguments) {
		close(msetDone)
	}).Return()

	mockDb := new(vector.MockDatabase)
	mockDb.On("BatchQuery", mock.Anything, mock.Anything).Return(&vector.BatchQueryResponse{
		SimilarSamplesList: map[string][]*vector.SimilarSample{
			cacheKey: {{Id: "B01", Score: 0.1}},
		},
	}, nil)
	vector.SetTestInstances(nil, mockDb)

	response, err := handler.RetrieveSimilarSamples(request, testScreenConfig(), testEmbeddingConfig(false, true), nil)
	require.NoError(t, err)
	require.Len(t, response.Responses, 1)
	assert.Equal(t, "B01", response.Responses[0].Samples[0].Id)

	<-msetDone
	distCache.AssertCalled(t, "MSet", mock.MatchedBy(func(data map[string][]byte) bool {
		raw, ok := data[cacheKey]
		if !ok {
			return false
		}
		var hits SampleHits
		return json.Unmarshal(raw, &hits) == nil && len(hits.Samples) == 1
	}), mock.Anything, 300, mock.Anything)
}

func TestValidateSimilarRequest(t *testing.T) {
	valid, _ := validateSimilarRequest(&SimilarRequest{
		Embedding: "tsne", SampleIds: []string{"A01"}, Limit: 5,
	})
	assert.True(t, valid)

	invalid, msg := validateSimilarRequest(&SimilarRequest{SampleIds: []string{"A01"}, Limit: 5})
	assert.False(t, invalid)
	assert.Equal(t, "embedding is required", msg)

	invalid, _ = validateSimilarRequest(&SimilarRequest{Embedding: "tsne", Limit: 5})
	assert.False(t, invalid)

	invalid, _ = validateSimilarRequest(&SimilarRequest{
		Embedding: "tsne", SampleIds: []string{"A01"}, Embeddings: [][]float32{{1}}, Limit: 5,
	})
	assert.False(t, invalid)

	invalid, _ = validateSimilarRequest(&SimilarRequest{
		Embedding: "tsne", SampleIds: []string{"A01"},
	})
	assert.False(t, invalid)
}

func TestGenerateResponseMapsDuplicateIndexes(t *testing.T) {
	responseMap := map[string]responseEntry{
		"k1": {Index: []int{0, 2}, Hits: SampleHits{Samples: []Sample{{Id: "A02"}}}},
		"k2": {Index: []int{1}, Hits: SampleHits{Samples: []Sample{{Id: "B01"}}}},
	}
	responses := generateResponse(responseMap, 3)
	require.Len(t, responses, 3)
	assert.Equal(t, "A02", responses[0].Samples[0].Id)
	assert.Equal(t, "B01", responses[1].Samples[0].Id)
	assert.Equal(t, "A02", responses[2].Samples[0].Id)
}

func TestCacheKeyDeduplication(t *testing.T) {
	request := StructRequest{
		Screen:    "bbbc021",
		Embedding: "tsne",
		SampleIds: []string{"A01", "A02", "A01"},
		Limit:     5,
	}
	cacheKeys := GetCacheKeysForSampleIds(request)
	require.Len(t, cacheKeys, 2)
	for _, cacheStruct := range cacheKeys {
		if cacheStruct.SampleId == "A01" {
			assert.Equal(t, []int{0, 2}, cacheStruct.Index)
		}
	}
}
