package config

import (
	"context"
	"testing"

	"github.com/microscopium/microscopium/internal/config/enums"
	"github.com/microscopium/microscopium/pkg/etcd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*MicroscopiumManager, *etcd.Mock) {
	t.Helper()
	client := etcd.NewMock()
	client.Data["/config/microscopium/storage/stores/1"] = `{"conf_id":1,"features_table":"features","fragments_table":"fragments","db":"microscopium"}`
	client.Data["/config/microscopium/screens/bbbc021"] = `{
		"store_id": "1",
		"dataset_path": "data/bbbc021.csv",
		"image_base_url": "https://images.example.com/bbbc021",
		"channels": ["dapi", "tubulin", "actin"],
		"gene_column": "gene",
		"state": "READY",
		"embeddings": {
			"tsne": {
				"enabled": true,
				"dimension": 2,
				"distance": "EUCLIDEAN",
				"vector_db_type": "EXHAUSTIVE",
				"vector_db_read_version": 1,
				"vector_db_write_version": 1
			}
		}
	}`
	m, err := NewMicroscopiumManager(client, "microscopium")
	require.NoError(t, err)
	return m, client
}

func TestGetScreenConfig(t *testing.T) {
	m, _ := newTestManager(t)

	screen, err := m.GetScreenConfig("bbbc021")
	require.NoError(t, err)
	assert.Equal(t, "1", screen.StoreId)
	assert.Equal(t, []string{"dapi", "tubulin", "actin"}, screen.Channels)
	assert.Equal(t, enums.READY, screen.State)

	_, err = m.GetScreenConfig("unknown")
	assert.Error(t, err)
}

func TestGetEmbeddingConfig(t *testing.T) {
	m, _ := newTestManager(t)

	emb, err := m.GetEmbeddingConfig("bbbc021", "tsne")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), emb.Dimension)
	assert.Equal(t, enums.EXHAUSTIVE, emb.VectorDbType)
	assert.Equal(t, enums.EUCLIDEAN, emb.Distance)

	_, err = m.GetEmbeddingConfig("bbbc021", "umap")
	assert.Error(t, err)
}

func TestRegisterScreen(t *testing.T) {
	m, _ := newTestManager(t)

	err := m.RegisterScreen("bbbc022", Screen{
		StoreId:     "1",
		DatasetPath: "data/bbbc022.csv",
		Channels:    []string{"dapi"},
	})
	require.NoError(t, err)

	screen, err := m.GetScreenConfig("bbbc022")
	require.NoError(t, err)
	assert.Equal(t, enums.FEATURE_INGESTION_STARTED, screen.State)

	err = m.RegisterScreen("bbbc022", Screen{StoreId: "1"})
	assert.Error(t, err, "duplicate registration must fail")

	err = m.RegisterScreen("bbbc023", Screen{StoreId: "99"})
	assert.Error(t, err, "unknown store must fail")
}

func TestRegisterEmbedding(t *testing.T) {
	m, _ := newTestManager(t)

	err := m.RegisterEmbedding("bbbc021", "pca", Embedding{
		Enabled:      true,
		Dimension:    50,
		Distance:     enums.COSINE,
		VectorDbType: enums.QDRANT,
	})
	require.NoError(t, err)

	emb, err := m.GetEmbeddingConfig("bbbc021", "pca")
	require.NoError(t, err)
	assert.Equal(t, DefaultVersion, emb.VectorDbReadVersion)
	assert.Equal(t, DefaultVersion, emb.VectorDbWriteVersion)

	err = m.RegisterEmbedding("bbbc021", "tsne", Embedding{})
	assert.Error(t, err, "duplicate embedding must fail")
}

func TestUpdateVectorDbVersions(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.UpdateVectorDbWriteVersion("bbbc021", "tsne", 2))
	emb, err := m.GetEmbeddingConfig("bbbc021", "tsne")
	require.NoError(t, err)
	assert.Equal(t, 2, emb.VectorDbWriteVersion)
	assert.Equal(t, 1, emb.VectorDbReadVersion)

	require.NoError(t, m.UpdateVectorDbReadVersion("bbbc021", "tsne", 2))
	emb, err = m.GetEmbeddingConfig("bbbc021", "tsne")
	require.NoError(t, err)
	assert.Equal(t, 2, emb.VectorDbReadVersion)
}

func TestUpdateScreenState(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.UpdateScreenState("bbbc021", enums.INDEXING_STARTED))
	screen, err := m.GetScreenConfig("bbbc021")
	require.NoError(t, err)
	assert.Equal(t, enums.INDEXING_STARTED, screen.State)
}

func TestWatchRefreshesSnapshot(t *testing.T) {
	m, client := newTestManager(t)

	// A write from another process lands via the prefix watch.
	err := client.Put(context.Background(), "/config/microscopium/screens/external",
		`{"store_id":"1","dataset_path":"data/external.csv","embeddings":{}}`)
	require.NoError(t, err)

	screen, err := m.GetScreenConfig("external")
	require.NoError(t, err)
	assert.Equal(t, "data/external.csv", screen.DatasetPath)
}

func TestRegisterStore(t *testing.T) {
	m, client := newTestManager(t)

	require.NoError(t, m.RegisterStore(2, "microscopium", "features_v2", "fragments_v2"))
	assert.Contains(t, client.Data, "/config/microscopium/storage/stores/2")

	conf, err := m.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, "features_v2", conf.Storage.Stores["2"].FeatureTable)
}
