package similar

// SimilarRequest asks for the nearest neighbours of samples in one of a
// screen's embeddings, either by sample id or by raw embedding vectors.
type SimilarRequest struct {
	Embedding  string      `json:"embedding"`
	SampleIds  []string    `json:"sample_ids"`
	Embeddings [][]float32 `json:"embeddings"`
	Limit      int         `json:"limit"`
	Payload    []string    `json:"payload"`
}

type StructRequest struct {
	Screen     string
	Embedding  string
	SampleIds  []string
	Embeddings [][]float32
	Limit      int
	Payload    []string
}

type Sample struct {
	Id      string            `json:"id"`
	Score   float32           `json:"score"`
	Payload map[string]string `json:"payload,omitempty"`
}

// SampleHits is the cached unit: the ordered hits for one cache key.
type SampleHits struct {
	Samples []Sample `json:"samples"`
}

type SimilarResponse struct {
	Responses []SampleHits `json:"responses"`
}
