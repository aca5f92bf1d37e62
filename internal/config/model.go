package config

import "github.com/microscopium/microscopium/internal/config/enums"

type Microscopium struct {
	Screens                             map[string]Screen
	Storage                             Storage
	DefaultInMemoryCachingTTLSeconds    int
	DefaultDistributedCachingTTLSeconds int
}

// Screen is one high-content screen: a sample table, its image source and
// the embeddings computed over its feature vectors.
type Screen struct {
	StoreId      string               `json:"store_id"`
	DatasetPath  string               `json:"dataset_path"`
	ImageBaseURL string               `json:"image_base_url"`
	Channels     []string             `json:"channels"`
	GeneColumn   string               `json:"gene_column"`
	State        enums.ScreenState    `json:"state"`
	Embeddings   map[string]Embedding `json:"embeddings"`
}

// Embedding is a named low-dimensional projection of a screen's feature
// vectors (e.g. "pca", "tsne") plus the backend that serves similarity
// lookups over it.
type Embedding struct {
	Enabled                    bool               `json:"enabled"`
	Dimension                  uint64             `json:"dimension"`
	Distance                   enums.Distance     `json:"distance"`
	VectorDbType               enums.VectorDbType `json:"vector_db_type"`
	VectorDbConfig             VectorDbConfig     `json:"vector_db_config"`
	VectorDbReadVersion        int                `json:"vector_db_read_version"`
	VectorDbWriteVersion       int                `json:"vector_db_write_version"`
	InMemoryCachingEnabled     bool               `json:"in_memory_caching_enabled"`
	InMemoryCacheTTLSeconds    int                `json:"in_memory_cache_ttl_seconds"`
	DistributedCachingEnabled  bool               `json:"distributed_caching_enabled"`
	DistributedCacheTTLSeconds int                `json:"distributed_cache_ttl_seconds"`
}

type VectorDbConfig struct {
	ReadHost    string             `json:"read_host"`
	WriteHost   string             `json:"write_host"`
	Port        string             `json:"port"`
	IsPlainText bool               `json:"is_plain_text"`
	Params      map[string]string  `json:"params"`
	Payload     map[string]Payload `json:"payload"`
}

type Payload struct {
	FieldSchema string `json:"field_schema"`
	Indexed     bool   `json:"indexed"`
}

type Storage struct {
	Stores map[string]Data
}

type Data struct {
	ConfId        int    `json:"conf_id"`
	FeatureTable  string `json:"features_table"`
	FragmentTable string `json:"fragments_table"`
	Db            string `json:"db"`
}
