package featurestore

import "github.com/microscopium/microscopium/internal/repositories"

type BulkQuery struct {
	CacheKeys map[string]repositories.CacheStruct `json:"cache_keys"`
	SampleIds []string                            `json:"sample_ids"`
	Screen    string                              `json:"screen"`
	Embedding string                              `json:"embedding"`
	Version   int                                 `json:"version"`
}

type Payload struct {
	SampleId    string    `json:"sample_id"`
	Features    []float32 `json:"features"`
	Embedding   string    `json:"embedding"`
	Version     int       `json:"version"`
	ToBeIndexed bool      `json:"to_be_indexed"`
}
