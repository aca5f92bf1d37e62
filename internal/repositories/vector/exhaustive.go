package vector

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/internal/config/enums"
	"github.com/microscopium/microscopium/pkg/ds"
	"github.com/microscopium/microscopium/pkg/metric"
	"github.com/rs/zerolog/log"
)

var (
	exhaustiveDb       Database
	exhaustiveSyncOnce sync.Once
)

// Exhaustive is an in-process brute-force backend. Screen embeddings are
// small (a few thousand samples in 2 to 50 dimensions), so a linear scan is
// fast enough and spares the operational cost of an external vector store.
type Exhaustive struct {
	collections   *ds.SyncMap[string, *exhaustiveCollection]
	configManager config.Manager
}

type exhaustiveCollection struct {
	mu       sync.RWMutex
	distance enums.Distance
	points   map[uint64]Point
}

func initExhaustiveInstance() Database {
	if exhaustiveDb == nil {
		exhaustiveSyncOnce.Do(func() {
			exhaustiveDb = NewExhaustive(config.NewManager(config.DefaultVersion))
		})
	}
	return exhaustiveDb
}

// NewExhaustive builds an empty in-process backend. Exported for tests.
func NewExhaustive(configManager config.Manager) *Exhaustive {
	return &Exhaustive{
		collections:   ds.NewSyncMap[string, *exhaustiveCollection](),
		configManager: configManager,
	}
}

func (e *Exhaustive) CreateCollection(screen, embedding string, version int) error {
	embeddingConfig, err := e.configManager.GetEmbeddingConfig(screen, embedding)
	if err != nil {
		return err
	}
	name := collectionName(screen, embedding, strconv.Itoa(version))
	e.collections.Set(name, &exhaustiveCollection{
		distance: embeddingConfig.Distance,
		points:   make(map[uint64]Point),
	})
	log.Info().Msgf("Exhaustive collection created: %s", name)
	return nil
}

func (e *Exhaustive) DeleteCollection(screen, embedding string, version int) error {
	name := collectionName(screen, embedding, strconv.Itoa(version))
	e.collections.Delete(name)
	log.Info().Msgf("Exhaustive collection deleted: %s", name)
	return nil
}

// CreateFieldIndexes is a no-op: the linear scan needs no indexes.
func (e *Exhaustive) CreateFieldIndexes(screen, embedding string, version int) error {
	return nil
}

func (e *Exhaustive) getCollection(name string) (*exhaustiveCollection, error) {
	coll, ok := e.collections.Get(name)
	if !ok {
		return nil, fmt.Errorf("exhaustive collection %s not found", name)
	}
	return coll, nil
}

func (e *Exhaustive) BulkUpsert(upsertRequest UpsertRequest) error {
	for key, points := range upsertRequest.Data {
		screen, embedding, version, err := SplitCollectionKey(key)
		if err != nil {
			return err
		}
		coll, err := e.getCollection(collectionName(screen, embedding, version))
		if err != nil {
			return err
		}
		coll.mu.Lock()
		for _, p := range points {
			coll.points[PointId(p.Id)] = p
		}
		coll.mu.Unlock()
		metric.Count("vector_db_bulk_upsert", int64(len(points)), []string{"vector_db_type", "exhaustive", "screen_name", screen})
	}
	return nil
}

func (e *Exhaustive) BulkDelete(deleteRequest DeleteRequest) error {
	for key, points := range deleteRequest.Data {
		screen, embedding, version, err := SplitCollectionKey(key)
		if err != nil {
			return err
		}
		coll, err := e.getCollection(collectionName(screen, embedding, version))
		if err != nil {
			return err
		}
		coll.mu.Lock()
		for _, p := range points {
			delete(coll.points, PointId(p.Id))
		}
		coll.mu.Unlock()
	}
	return nil
}

func (e *Exhaustive) BatchQuery(request *BatchQueryRequest, metricTags []string) (*BatchQueryResponse, error) {
	startTime := time.Now()
	tags := append([]string{"vector_db_type", "exhaustive"}, metricTags...)
	metric.Incr("vector_db_batch_query", tags)
	coll, err := e.getCollection(collectionName(request.Screen, request.Embedding, strconv.Itoa(request.Version)))
	if err != nil {
		metric.Incr("vector_db_batch_query_failure", tags)
		return nil, err
	}
	response := &BatchQueryResponse{SimilarSamplesList: make(map[string][]*SimilarSample, len(request.RequestList))}
	coll.mu.RLock()
	defer coll.mu.RUnlock()
	for _, details := range request.RequestList {
		response.SimilarSamplesList[details.CacheKey] = coll.search(details)
	}
	metric.Timing("vector_db_batch_query_latency", time.Since(startTime), tags)
	return response, nil
}

// search scans all points and returns the best hits after the offset.
// Cosine scores sort descending, Euclidean distances ascending.
func (c *exhaustiveCollection) search(details *QueryDetails) []*SimilarSample {
	scored := make([]*SimilarSample, 0, len(c.points))
	for _, p := range c.points {
		score, ok := c.score(details.Embedding, p.Vector)
		if !ok {
			continue
		}
		sample := &SimilarSample{Id: p.Id, Score: score, Payload: make(map[string]string)}
		for _, field := range details.Payload {
			if v, exists := p.Payload[field]; exists {
				sample.Payload[field] = fmt.Sprintf("%v", v)
			}
		}
		sample.Payload[PayloadSampleId] = p.Id
		scored = append(scored, sample)
	}
	asc := c.distance == enums.EUCLIDEAN
	sort.Slice(scored, func(i, j int) bool {
		if asc {
			return scored[i].Score < scored[j].Score
		}
		return scored[i].Score > scored[j].Score
	})
	if details.Offset >= len(scored) {
		return nil
	}
	scored = scored[details.Offset:]
	if int(details.Limit) < len(scored) {
		scored = scored[:details.Limit]
	}
	return scored
}

func (c *exhaustiveCollection) score(query, candidate []float32) (float32, bool) {
	if len(query) != len(candidate) {
		return 0, false
	}
	switch c.distance {
	case enums.EUCLIDEAN:
		var sum float64
		for i := range query {
			d := float64(query[i] - candidate[i])
			sum += d * d
		}
		return float32(math.Sqrt(sum)), true
	default:
		var dot, normQ, normC float64
		for i := range query {
			dot += float64(query[i]) * float64(candidate[i])
			normQ += float64(query[i]) * float64(query[i])
			normC += float64(candidate[i]) * float64(candidate[i])
		}
		if normQ == 0 || normC == 0 {
			return 0, true
		}
		return float32(dot / (math.Sqrt(normQ) * math.Sqrt(normC))), true
	}
}

func (e *Exhaustive) GetCollectionInfo(screen, embedding string, version int) (*CollectionInfoResponse, error) {
	coll, err := e.getCollection(collectionName(screen, embedding, strconv.Itoa(version)))
	if err != nil {
		return nil, err
	}
	coll.mu.RLock()
	defer coll.mu.RUnlock()
	count := float64(len(coll.points))
	return &CollectionInfoResponse{Status: "Green", PointsCount: count, IndexedVectorsCount: count}, nil
}

// RefreshClients is a no-op: there is no remote connection to rebuild.
func (e *Exhaustive) RefreshClients(key, value, eventType string) error {
	return nil
}
