package vector

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// PayloadSampleId is the payload field carrying the original sample id of a
// point. Vector backends address points numerically, so the id travels in
// the payload.
const PayloadSampleId = "sample_id"

// Point is one sample's embedding vector plus payload.
type Point struct {
	Id      string
	Payload map[string]interface{}
	Vector  []float32
}

// UpsertRequest groups points by collection key (see CollectionKey).
type UpsertRequest struct {
	Data map[string][]Point
}

type DeleteRequest struct {
	Data map[string][]Point
}

// QueryDetails is a single nearest-neighbour lookup.
type QueryDetails struct {
	CacheKey  string
	Embedding []float32
	Offset    int
	Limit     int32
	Payload   []string
}

type BatchQueryRequest struct {
	Screen      string
	Embedding   string
	Version     int
	RequestList []*QueryDetails
}

type BatchQueryResponse struct {
	SimilarSamplesList map[string][]*SimilarSample
}

// SimilarSample is one search hit.
type SimilarSample struct {
	Id      string
	Score   float32
	Payload map[string]string
}

type CollectionInfoResponse struct {
	Status              string
	IndexedVectorsCount float64
	PointsCount         float64
}

// CollectionKey packs screen, embedding and version into the upsert map key.
func CollectionKey(screen, embedding string, version int) string {
	return fmt.Sprintf("%s|%s|%d", screen, embedding, version)
}

// SplitCollectionKey is the inverse of CollectionKey.
func SplitCollectionKey(key string) (screen, embedding, version string, err error) {
	parts := strings.Split(key, "|")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("invalid collection key: %s", key)
	}
	return parts[0], parts[1], parts[2], nil
}

// PointId hashes a sample id to the numeric point id used by the backend.
func PointId(sampleId string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sampleId))
	return h.Sum64()
}

func collectionName(screen, embedding, version string) string {
	return fmt.Sprintf("%s_%s_v%s", screen, embedding, version)
}
