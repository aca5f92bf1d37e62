package indexer

import (
	"testing"

	"github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/internal/config/enums"
	"github.com/microscopium/microscopium/internal/repositories/vector"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProcessUpsertGroupsByCollection(t *testing.T) {
	manager := new(config.MockConfigManager)
	manager.On("GetEmbeddingConfig", "bbbc021", "pca").
		Return(&config.Embedding{Enabled: true, VectorDbType: enums.EXHAUSTIVE}, nil)

	mockDb := new(vector.MockDatabase)
	mockDb.On("BulkUpsert", mock.MatchedBy(func(req vector.UpsertRequest) bool {
		points := req.Data[vector.CollectionKey("bbbc021", "pca", 1)]
		return len(points) == 2 && points[0].Id == "A01" && points[1].Id == "A02"
	})).Return(nil)
	vector.SetTestInstances(nil, mockDb)

	handler := &VectorIndexer{configManager: manager}
	err := handler.Process(Event{Data: map[EventType][]Data{
		Upsert: {
			{Screen: "bbbc021", Embedding: "pca", Version: 1, Id: "A01", Vectors: []float32{1, 2}},
			{Screen: "bbbc021", Embedding: "pca", Version: 1, Id: "A02", Vectors: []float32{3, 4}},
		},
	}})
	require.NoError(t, err)
	mockDb.AssertExpectations(t)
}

func TestProcessSkipsDisabledEmbedding(t *testing.T) {
	manager := new(config.MockConfigManager)
	manager.On("GetEmbeddingConfig", "bbbc021", "tsne").
		Return(&config.Embedding{Enabled: false, VectorDbType: enums.EXHAUSTIVE}, nil)

	mockDb := new(vector.MockDatabase)
	vector.SetTestInstances(nil, mockDb)

	handler := &VectorIndexer{configManager: manager}
	err := handler.Process(Event{Data: map[EventType][]Data{
		Delete: {
			{Screen: "bbbc021", Embedding: "tsne", Version: 1, Id: "A01"},
		},
	}})
	require.NoError(t, err)
	mockDb.AssertNotCalled(t, "BulkDelete", mock.Anything)
}
