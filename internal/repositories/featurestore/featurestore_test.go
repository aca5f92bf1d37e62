package featurestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRetrieveQuery(t *testing.T) {
	query := buildRetrieveQuery("microscopium", "features_v1", "features")
	assert.Equal(t,
		"SELECT features FROM microscopium.features_v1 WHERE embedding_name = ? AND version = ? AND id = ?",
		query)
}

func TestBuildPersistQuery(t *testing.T) {
	query := buildPersistQuery("microscopium", "features_v1",
		[]string{"embedding_name", "features", "id", "to_be_indexed", "version"}, 3600)
	assert.Equal(t,
		"INSERT INTO microscopium.features_v1 (embedding_name, features, id, to_be_indexed, version) "+
			"VALUES (?, ?, ?, ?, ?) using TTL 3600",
		query)
}

func TestPreparePersistColumns(t *testing.T) {
	columns := preparePersistColumns(Payload{
		SampleId:    "A01",
		Features:    []float32{1, 2},
		Embedding:   "pca",
		Version:     1,
		ToBeIndexed: true,
	})
	assert.Equal(t, "A01", columns[Id])
	assert.Equal(t, "pca", columns[EmbeddingName])
	assert.Equal(t, 1, columns[Version])
	assert.Equal(t, []float32{1, 2}, columns[Features])
	assert.Equal(t, true, columns[ToBeIndexed])
}
