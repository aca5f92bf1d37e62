package vector

import (
	"testing"

	"github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/internal/config/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExhaustive(t *testing.T, distance enums.Distance) *Exhaustive {
	t.Helper()
	mockManager := new(config.MockConfigManager)
	mockManager.On("GetEmbeddingConfig", "bbbc021", "tsne").
		Return(&config.Embedding{Enabled: true, Dimension: 2, Distance: distance, VectorDbType: enums.EXHAUSTIVE}, nil)
	e := NewExhaustive(mockManager)
	require.NoError(t, e.CreateCollection("bbbc021", "tsne", 1))
	return e
}

func upsertTestPoints(t *testing.T, e *Exhaustive) {
	t.Helper()
	err := e.BulkUpsert(UpsertRequest{Data: map[string][]Point{
		CollectionKey("bbbc021", "tsne", 1): {
			{Id: "A01", Vector: []float32{0, 0}, Payload: map[string]interface{}{"gene": "myc"}},
			{Id: "A02", Vector: []float32{1, 0}, Payload: map[string]interface{}{"gene": "myc"}},
			{Id: "B01", Vector: []float32{5, 5}, Payload: map[string]interface{}{"gene": "tp53"}},
		},
	}})
	require.NoError(t, err)
}

func TestExhaustiveEuclideanOrder(t *testing.T) {
	e := newTestExhaustive(t, enums.EUCLIDEAN)
	upsertTestPoints(t, e)

	resp, err := e.BatchQuery(&BatchQueryRequest{
		Screen:    "bbbc021",
		Embedding: "tsne",
		Version:   1,
		RequestList: []*QueryDetails{
			{CacheKey: "q1", Embedding: []float32{0.1, 0}, Limit: 2, Payload: []string{"gene"}},
		},
	}, nil)
	require.NoError(t, err)

	hits := resp.SimilarSamplesList["q1"]
	require.Len(t, hits, 2)
	assert.Equal(t, "A01", hits[0].Id)
	assert.Equal(t, "A02", hits[1].Id)
	assert.Less(t, hits[0].Score, hits[1].Score)
	assert.Equal(t, "myc", hits[0].Payload["gene"])
	assert.Equal(t, "A01", hits[0].Payload[PayloadSampleId])
}

func TestExhaustiveCosineOrder(t *testing.T) {
	e := newTestExhaustive(t, enums.COSINE)
	err := e.BulkUpsert(UpsertRequest{Data: map[string][]Point{
		CollectionKey("bbbc021", "tsne", 1): {
			{Id: "aligned", Vector: []float32{2, 0}},
			{Id: "diagonal", Vector: []float32{1, 1}},
			{Id: "opposite", Vector: []float32{-1, 0}},
		},
	}})
	require.NoError(t, err)

	resp, err := e.BatchQuery(&BatchQueryRequest{
		Screen:    "bbbc021",
		Embedding: "tsne",
		Version:   1,
		RequestList: []*QueryDetails{
			{CacheKey: "q", Embedding: []float32{1, 0}, Limit: 3},
		},
	}, nil)
	require.NoError(t, err)

	hits := resp.SimilarSamplesList["q"]
	require.Len(t, hits, 3)
	assert.Equal(t, "aligned", hits[0].Id)
	assert.Equal(t, "diagonal", hits[1].Id)
	assert.Equal(t, "opposite", hits[2].Id)
	assert.InDelta(t, 1.0, float64(hits[0].Score), 1e-6)
}

func TestExhaustiveOffsetAndLimit(t *testing.T) {
	e := newTestExhaustive(t, enums.EUCLIDEAN)
	upsertTestPoints(t, e)

	resp, err := e.BatchQuery(&BatchQueryRequest{
		Screen:    "bbbc021",
		Embedding: "tsne",
		Version:   1,
		RequestList: []*QueryDetails{
			{CacheKey: "q", Embedding: []float32{0, 0}, Offset: 1, Limit: 1},
			{CacheKey: "past-end", Embedding: []float32{0, 0}, Offset: 10, Limit: 1},
		},
	}, nil)
	require.NoError(t, err)

	require.Len(t, resp.SimilarSamplesList["q"], 1)
	assert.Equal(t, "A02", resp.SimilarSamplesList["q"][0].Id)
	assert.Empty(t, resp.SimilarSamplesList["past-end"])
}

func TestExhaustiveBulkDelete(t *testing.T) {
	e := newTestExhaustive(t, enums.EUCLIDEAN)
	upsertTestPoints(t, e)

	err := e.BulkDelete(DeleteRequest{Data: map[string][]Point{
		CollectionKey("bbbc021", "tsne", 1): {{Id: "A01"}},
	}})
	require.NoError(t, err)

	info, err := e.GetCollectionInfo("bbbc021", "tsne", 1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, info.PointsCount)
}

func TestExhaustiveUnknownCollection(t *testing.T) {
	e := newTestExhaustive(t, enums.EUCLIDEAN)
	_, err := e.BatchQuery(&BatchQueryRequest{Screen: "other", Embedding: "pca", Version: 1}, nil)
	assert.Error(t, err)
}

func TestExhaustiveDeleteCollection(t *testing.T) {
	e := newTestExhaustive(t, enums.EUCLIDEAN)
	require.NoError(t, e.DeleteCollection("bbbc021", "tsne", 1))
	_, err := e.GetCollectionInfo("bbbc021", "tsne", 1)
	assert.Error(t, err)
}
