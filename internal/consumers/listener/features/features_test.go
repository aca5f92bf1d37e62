package features

import (
	"testing"

	"github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/internal/consumers/handler/indexer"
	"github.com/microscopium/microscopium/internal/repositories/featurestore"
	"github.com/microscopium/microscopium/internal/repositories/fragments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestConsumer(fragmentsDb *fragments.MockDatabase, featureStore *featurestore.MockStore,
	handler *indexer.MockHandler, manager *config.MockConfigManager) *FeatureConsumer {
	return &FeatureConsumer{
		indexerHandler: handler,
		fragmentsDb:    fragmentsDb,
		featureStore:   featureStore,
		configManager:  manager,
	}
}

func testScreenConfig() *config.Screen {
	return &config.Screen{
		StoreId:  "1",
		Channels: []string{"dapi", "tubulin", "actin"},
	}
}

func testEmbeddingConfig() *config.Embedding {
	return &config.Embedding{
		Enabled:              true,
		VectorDbWriteVersion: 1,
		VectorDbConfig: config.VectorDbConfig{
			Payload: map[string]config.Payload{
				"gene": {FieldSchema: "keyword", Indexed: true},
			},
		},
	}
}

func TestIncompleteSampleNotIndexed(t *testing.T) {
	fragmentsDb := new(fragments.MockDatabase)
	featureStore := new(featurestore.MockStore)
	handler := new(indexer.MockHandler)
	manager := new(config.MockConfigManager)

	manager.On("GetScreenConfig", "bbbc021").Return(testScreenConfig(), nil)
	manager.On("GetEmbeddingConfig", "bbbc021", "pca").Return(testEmbeddingConfig(), nil)
	fragmentsDb.On("Persist", "1", "A01", mock.Anything).Return(nil)
	fragmentsDb.On("Query", "1", &fragments.Query{SampleId: "A01"}).Return(map[string]interface{}{
		"fragment_dapi": []float32{1, 2},
	}, nil)
	handler.On("Process", mock.Anything).Return(nil)

	consumer := newTestConsumer(fragmentsDb, featureStore, handler, manager)
	err := consumer.ProcessInSequence([]Event{{
		Screen:       "bbbc021",
		SampleId:     "A01",
		Embedding:    "pca",
		Channel:      "dapi",
		Fragment:     []float32{1, 2},
		ChannelCount: 3,
		Operation:    OperationAdd,
	}})
	require.NoError(t, err)

	featureStore.AssertNotCalled(t, "Persist", mock.Anything, mock.Anything, mock.Anything)
	handler.AssertCalled(t, "Process", mock.MatchedBy(func(event indexer.Event) bool {
		return len(event.Data[indexer.Upsert]) == 0
	}))
}

func TestCompleteSamplePersistedAndIndexed(t *testing.T) {
	fragmentsDb := new(fragments.MockDatabase)
	featureStore := new(featurestore.MockStore)
	handler := new(indexer.MockHandler)
	manager := new(config.MockConfigManager)

	manager.On("GetScreenConfig", "bbbc021").Return(testScreenConfig(), nil)
	manager.On("GetEmbeddingConfig", "bbbc021", "pca").Return(testEmbeddingConfig(), nil)
	fragmentsDb.On("Persist", "1", "A01", mock.Anything).Return(nil)
	fragmentsDb.On("Query", "1", &fragments.Query{SampleId: "A01"}).Return(map[string]interface{}{
		"fragment_dapi":    []float32{1, 2},
		"fragment_tubulin": []float32{3},
		"fragment_actin":   []float32{4, 5},
	}, nil)
	featureStore.On("Persist", "1", 0, mock.Anything).Return(nil)
	handler.On("Process", mock.Anything).Return(nil)

	consumer := newTestConsumer(fragmentsDb, featureStore, handler, manager)
	err := consumer.ProcessInSequence([]Event{{
		Screen:       "bbbc021",
		SampleId:     "A01",
		Embedding:    "pca",
		Channel:      "actin",
		Fragment:     []float32{4, 5},
		ChannelCount: 3,
		Operation:    OperationAdd,
		Payload:      map[string]string{"gene": "myc"},
	}})
	require.NoError(t, err)

	featureStore.AssertCalled(t, "Persist", "1", 0, mock.MatchedBy(func(p featurestore.Payload) bool {
		return p.SampleId == "A01" &&
			assert.ObjectsAreEqual([]float32{1, 2, 3, 4, 5}, p.Features) &&
			p.ToBeIndexed
	}))
	handler.AssertCalled(t, "Process", mock.MatchedBy(func(event indexer.Event) bool {
		upserts := event.Data[indexer.Upsert]
		if len(upserts) != 1 {
			return false
		}
		return upserts[0].Id == "A01" &&
			upserts[0].Payload["gene"] == "myc" &&
			upserts[0].Payload["sample_id"] == "A01"
	}))
}

func TestDeleteSkipsAggregation(t *testing.T) {
	fragmentsDb := new(fragments.MockDatabase)
	featureStore := new(featurestore.MockStore)
	handler := new(indexer.MockHandler)
	manager := new(config.MockConfigManager)

	manager.On("GetScreenConfig", "bbbc021").Return(testScreenConfig(), nil)
	manager.On("GetEmbeddingConfig", "bbbc021", "pca").Return(testEmbeddingConfig(), nil)
	handler.On("Process", mock.Anything).Return(nil)

	consumer := newTestConsumer(fragmentsDb, featureStore, handler, manager)
	err := consumer.ProcessInSequence([]Event{{
		Screen:    "bbbc021",
		SampleId:  "A01",
		Embedding: "pca",
		Operation: OperationDelete,
	}})
	require.NoError(t, err)

	fragmentsDb.AssertNotCalled(t, "Persist", mock.Anything, mock.Anything, mock.Anything)
	handler.AssertCalled(t, "Process", mock.MatchedBy(func(event indexer.Event) bool {
		deletes := event.Data[indexer.Delete]
		return len(deletes) == 1 && deletes[0].Id == "A01" && deletes[0].Version == 1
	}))
}

func TestAssembleVectorRespectsChannelOrder(t *testing.T) {
	row := map[string]interface{}{
		"fragment_actin":   []float32{5},
		"fragment_dapi":    []float32{1, 2},
		"fragment_tubulin": []float32{3, 4},
	}
	full, complete := assembleVector([]string{"dapi", "tubulin", "actin"},
		Event{ChannelCount: 3}, row)
	require.True(t, complete)
	assert.Equal(t, []float32{1, 2, 3, 4, 5}, full)
}

func TestAdaptToPayloadValue(t *testing.T) {
	v, err := adaptToPayloadValue("myc", "keyword")
	require.NoError(t, err)
	assert.Equal(t, "myc", v)

	v, err = adaptToPayloadValue("42", "integer")
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = adaptToPayloadValue("true", "boolean")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	_, err = adaptToPayloadValue("x", "geo")
	assert.Error(t, err)
}
