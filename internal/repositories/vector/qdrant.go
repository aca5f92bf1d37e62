package vector

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/internal/config/enums"
	cbconf "github.com/microscopium/microscopium/pkg/circuitbreaker"
	"github.com/microscopium/microscopium/pkg/circuitbreaker/failsafecb"
	"github.com/microscopium/microscopium/pkg/metric"
	"github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/resolver"
)

const defaultDeadlineMs = 2000

var (
	qdrantDb       Database
	qdrantSyncOnce sync.Once
)

type Qdrant struct {
	mu            sync.RWMutex
	clients       map[string]*QdrantClient
	configManager config.Manager
	searchCB      *failsafecb.FailSafeCB[*qdrant.SearchBatchResponse]
}

type QdrantClient struct {
	ReadClient  *qdrant.Client
	WriteClient *qdrant.Client
	ReadHost    string
	WriteHost   string
	DeadlineMs  int
}

func initQdrantInstance() Database {
	if qdrantDb == nil {
		qdrantSyncOnce.Do(func() {
			qdrantDb = createQdrantInstance()
		})
	}
	return qdrantDb
}

func createQdrantInstance() *Qdrant {
	resolver.SetDefaultScheme("dns")
	configManager := config.NewManager(config.DefaultVersion)
	screens, err := configManager.GetScreens()
	if err != nil {
		log.Panic().Msgf("Error getting screen configs from etcd: %v", err)
	}
	clients := make(map[string]*QdrantClient)
	for screen, screenConfig := range screens {
		for embedding, embeddingConfig := range screenConfig.Embeddings {
			if embeddingConfig.VectorDbType != enums.QDRANT || !embeddingConfig.Enabled {
				continue
			}
			client, err := buildQdrantClient(embeddingConfig.VectorDbConfig)
			if err != nil {
				log.Error().Msgf("Could not create qdrant clients for %s %s: %v", screen, embedding, err)
				continue
			}
			clients[clientKey(screen, embedding)] = client
			log.Info().Msgf("Qdrant clients created for %s %s", screen, embedding)
		}
	}
	return &Qdrant{
		clients:       clients,
		configManager: configManager,
		searchCB:      failsafecb.NewFailSafe[*qdrant.SearchBatchResponse](cbconf.DefaultConfig("qdrant-search")),
	}
}

func clientKey(screen, embedding string) string {
	return fmt.Sprintf("%s:%s", screen, embedding)
}

func buildQdrantClient(vectorConfig config.VectorDbConfig) (*QdrantClient, error) {
	deadline := defaultDeadlineMs
	if v, ok := vectorConfig.Params["deadline_in_ms"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			deadline = parsed
		}
	}
	client := &QdrantClient{
		ReadHost:   vectorConfig.ReadHost,
		WriteHost:  vectorConfig.WriteHost,
		DeadlineMs: deadline,
	}
	if vectorConfig.ReadHost != "" {
		readClient, err := createQdrantClient(vectorConfig, vectorConfig.ReadHost)
		if err != nil {
			return nil, err
		}
		healthCheck(vectorConfig.ReadHost, readClient)
		client.ReadClient = readClient
	}
	if vectorConfig.WriteHost != "" {
		writeClient, err := createQdrantClient(vectorConfig, vectorConfig.WriteHost)
		if err != nil {
			return nil, err
		}
		healthCheck(vectorConfig.WriteHost, writeClient)
		client.WriteClient = writeClient
	}
	return client, nil
}

func createQdrantClient(vectorConfig config.VectorDbConfig, host string) (*qdrant.Client, error) {
	port, err := strconv.Atoi(vectorConfig.Port)
	if err != nil {
		return nil, fmt.Errorf("could not parse qdrant port %q: %w", vectorConfig.Port, err)
	}
	return qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
		GrpcOptions: []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithDefaultServiceConfig(`{"loadBalancingPolicy":"round_robin"}`),
		},
	})
}

func healthCheck(host string, client *qdrant.Client) {
	result, err := client.HealthCheck(context.Background())
	if err != nil {
		log.Warn().Msgf("Qdrant health check failed for %s: %v", host, err)
		return
	}
	log.Info().Msgf("Qdrant %s version: %s", host, result.GetVersion())
}

func (q *Qdrant) getClient(screen, embedding string) (*QdrantClient, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	client, ok := q.clients[clientKey(screen, embedding)]
	if !ok {
		return nil, fmt.Errorf("no qdrant client for %s %s", screen, embedding)
	}
	return client, nil
}

func convertToDistance(d enums.Distance) qdrant.Distance {
	switch d {
	case enums.EUCLIDEAN:
		return qdrant.Distance_Euclid
	default:
		return qdrant.Distance_Cosine
	}
}

// CreateCollection creates the versioned collection for a screen embedding.
func (q *Qdrant) CreateCollection(screen, embedding string, version int) error {
	client, err := q.getClient(screen, embedding)
	if err != nil {
		return err
	}
	embeddingConfig, err := q.configManager.GetEmbeddingConfig(screen, embedding)
	if err != nil {
		return err
	}
	name := collectionName(screen, embedding, strconv.Itoa(version))
	ctx, cancel := q.writeContext(client)
	defer cancel()
	collectionsClient := qdrant.NewCollectionsClient(client.WriteClient.GetConnection())
	_, err = collectionsClient.Create(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: &qdrant.VectorsConfig{Config: &qdrant.VectorsConfig_Params{
			Params: &qdrant.VectorParams{
				Size:     embeddingConfig.Dimension,
				Distance: convertToDistance(embeddingConfig.Distance),
			},
		}},
	})
	if err != nil {
		log.Error().Msgf("Could not create collection %s: %v", name, err)
		return err
	}
	log.Info().Msgf("Collection created: %s", name)
	return q.CreateFieldIndexes(screen, embedding, version)
}

// CreateFieldIndexes creates payload field indexes per the embedding's
// payload schema.
func (q *Qdrant) CreateFieldIndexes(screen, embedding string, version int) error {
	client, err := q.getClient(screen, embedding)
	if err != nil {
		return err
	}
	embeddingConfig, err := q.configManager.GetEmbeddingConfig(screen, embedding)
	if err != nil {
		return err
	}
	pointsClient := qdrant.NewPointsClient(client.WriteClient.GetConnection())
	name := collectionName(screen, embedding, strconv.Itoa(version))
	for field, schema := range embeddingConfig.VectorDbConfig.Payload {
		if !schema.Indexed {
			continue
		}
		fieldType := fieldIndexType(schema.FieldSchema)
		_, err := pointsClient.CreateFieldIndex(context.Background(), &qdrant.CreateFieldIndexCollection{
			CollectionName: name,
			FieldName:      field,
			FieldType:      &fieldType,
		})
		if err != nil {
			log.Error().Msgf("Could not create field index %s on %s: %v", field, name, err)
			return err
		}
	}
	return nil
}

func fieldIndexType(fieldSchema string) qdrant.FieldType {
	switch fieldSchema {
	case "integer":
		return qdrant.FieldType_FieldTypeInteger
	case "float":
		return qdrant.FieldType_FieldTypeFloat
	case "bool":
		return qdrant.FieldType_FieldTypeBool
	default:
		return qdrant.FieldType_FieldTypeKeyword
	}
}

// DeleteCollection drops a versioned collection.
func (q *Qdrant) DeleteCollection(screen, embedding string, version int) error {
	client, err := q.getClient(screen, embedding)
	if err != nil {
		return err
	}
	name := collectionName(screen, embedding, strconv.Itoa(version))
	ctx, cancel := q.writeContext(client)
	defer cancel()
	collectionsClient := qdrant.NewCollectionsClient(client.WriteClient.GetConnection())
	if _, err := collectionsClient.Delete(ctx, &qdrant.DeleteCollection{CollectionName: name}); err != nil {
		log.Error().Msgf("Failed to delete collection %s: %v", name, err)
		return err
	}
	log.Info().Msgf("Collection deleted: %s", name)
	return nil
}

// BulkUpsert writes a batch of points per collection key.
func (q *Qdrant) BulkUpsert(upsertRequest UpsertRequest) error {
	for key, points := range upsertRequest.Data {
		startTime := time.Now()
		screen, embedding, version, err := SplitCollectionKey(key)
		if err != nil {
			return err
		}
		client, err := q.getClient(screen, embedding)
		if err != nil {
			return err
		}
		tags := metricTags(screen, embedding, version)
		metric.Incr("vector_db_bulk_upsert", tags)
		upsertPoints := prepareUpsertPoints(points)
		ctx, cancel := q.writeContext(client)
		pointsClient := qdrant.NewPointsClient(client.WriteClient.GetConnection())
		wait := true
		_, err = pointsClient.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collectionName(screen, embedding, version),
			Wait:           &wait,
			Points:         upsertPoints,
		})
		cancel()
		if err != nil {
			log.Error().Msgf("Could not upsert points: %v", err)
			metric.Incr("vector_db_bulk_upsert_error", tags)
			return err
		}
		metric.Timing("vector_db_bulk_upsert_latency", time.Since(startTime), tags)
	}
	return nil
}

// BulkDelete removes points per collection key.
func (q *Qdrant) BulkDelete(deleteRequest DeleteRequest) error {
	for key, points := range deleteRequest.Data {
		startTime := time.Now()
		screen, embedding, version, err := SplitCollectionKey(key)
		if err != nil {
			return err
		}
		client, err := q.getClient(screen, embedding)
		if err != nil {
			return err
		}
		tags := metricTags(screen, embedding, version)
		metric.Incr("vector_db_bulk_delete", tags)
		ids := make([]*qdrant.PointId, 0, len(points))
		for _, p := range points {
			ids = append(ids, &qdrant.PointId{PointIdOptions: &qdrant.PointId_Num{Num: PointId(p.Id)}})
		}
		wait := true
		ctx, cancel := q.writeContext(client)
		pointsClient := qdrant.NewPointsClient(client.WriteClient.GetConnection())
		_, err = pointsClient.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: collectionName(screen, embedding, version),
			Wait:           &wait,
			Points: &qdrant.PointsSelector{
				PointsSelectorOneOf: &qdrant.PointsSelector_Points{
					Points: &qdrant.PointsIdsList{Ids: ids},
				},
			},
		})
		cancel()
		if err != nil {
			log.Error().Msgf("Could not delete points: %v", err)
			metric.Incr("vector_db_bulk_delete_error", tags)
			return err
		}
		metric.Timing("vector_db_bulk_delete_latency", time.Since(startTime), tags)
	}
	return nil
}

// BatchQuery runs one search per request entry against the read client,
// behind the shared circuit breaker.
func (q *Qdrant) BatchQuery(request *BatchQueryRequest, metricTags []string) (*BatchQueryResponse, error) {
	startTime := time.Now()
	tags := append([]string{"vector_db_type", "qdrant"}, metricTags...)
	metric.Incr("vector_db_batch_query", tags)
	client, err := q.getClient(request.Screen, request.Embedding)
	if err != nil {
		return nil, err
	}
	name := collectionName(request.Screen, request.Embedding, strconv.Itoa(request.Version))
	searchPoints := make([]*qdrant.SearchPoints, 0, len(request.RequestList))
	indexedOnly := true
	for _, details := range request.RequestList {
		offset := uint64(details.Offset)
		searchPoints = append(searchPoints, &qdrant.SearchPoints{
			CollectionName: name,
			Vector:         details.Embedding,
			Limit:          uint64(details.Limit),
			Offset:         &offset,
			WithPayload:    qdrant.NewWithPayloadInclude(details.Payload...),
			Params:         &qdrant.SearchParams{IndexedOnly: &indexedOnly},
		})
	}
	response, err := q.searchCB.Execute(func() (*qdrant.SearchBatchResponse, error) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(client.DeadlineMs)*time.Millisecond)
		defer cancel()
		pointsClient := qdrant.NewPointsClient(client.ReadClient.GetConnection())
		return pointsClient.SearchBatch(ctx, &qdrant.SearchBatchPoints{
			CollectionName: name,
			SearchPoints:   searchPoints,
		})
	})
	if err != nil {
		metric.Incr("vector_db_batch_query_failure", tags)
		log.Error().Msgf("Batch query failed for %s: %v", name, err)
		return nil, err
	}
	result := parseBatchResponse(response.GetResult(), request.RequestList)
	metric.Timing("vector_db_batch_query_latency", time.Since(startTime), tags)
	return result, nil
}

// GetCollectionInfo reports point counts for a versioned collection.
func (q *Qdrant) GetCollectionInfo(screen, embedding string, version int) (*CollectionInfoResponse, error) {
	client, err := q.getClient(screen, embedding)
	if err != nil {
		return nil, err
	}
	name := collectionName(screen, embedding, strconv.Itoa(version))
	ctx, cancel := q.writeContext(client)
	defer cancel()
	collectionsClient := qdrant.NewCollectionsClient(client.WriteClient.GetConnection())
	response, err := collectionsClient.Get(ctx, &qdrant.GetCollectionInfoRequest{CollectionName: name})
	if err != nil || response == nil {
		log.Error().Msgf("Failed to get collection info for %s: %v", name, err)
		return nil, err
	}
	info := &CollectionInfoResponse{Status: response.Result.Status.String()}
	if response.Result.IndexedVectorsCount != nil {
		info.IndexedVectorsCount = float64(*response.Result.IndexedVectorsCount)
	}
	if response.Result.PointsCount != nil {
		info.PointsCount = float64(*response.Result.PointsCount)
	}
	return info, nil
}

// RefreshClients rebuilds clients when a screen's config changes in etcd.
func (q *Qdrant) RefreshClients(key, value, eventType string) error {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic refreshing qdrant clients: %v", r)
		}
	}()
	if eventType == "DELETE" {
		return nil
	}
	screen := extractScreenFromConfigKey(key)
	if screen == "" {
		return nil
	}
	screenConfig, err := q.configManager.GetScreenConfig(screen)
	if err != nil {
		log.Error().Msgf("Error getting screen config for %s: %v", screen, err)
		return nil
	}
	for embedding, embeddingConfig := range screenConfig.Embeddings {
		if embeddingConfig.VectorDbType != enums.QDRANT || !embeddingConfig.Enabled {
			continue
		}
		ck := clientKey(screen, embedding)
		q.mu.RLock()
		existing, exists := q.clients[ck]
		q.mu.RUnlock()
		vectorConfig := embeddingConfig.VectorDbConfig
		if exists && existing.ReadHost == vectorConfig.ReadHost && existing.WriteHost == vectorConfig.WriteHost {
			continue
		}
		client, err := buildQdrantClient(vectorConfig)
		if err != nil {
			log.Error().Msgf("Failed to refresh qdrant client for %s %s: %v", screen, embedding, err)
			return err
		}
		q.mu.Lock()
		q.clients[ck] = client
		q.mu.Unlock()
		log.Info().Msgf("Qdrant client refreshed for %s %s with hosts %s/%s", screen, embedding, vectorConfig.ReadHost, vectorConfig.WriteHost)
	}
	return nil
}

// extractScreenFromConfigKey pulls the screen name from an etcd config path
// like /config/<app>/screens/<screen>.
func extractScreenFromConfigKey(key string) string {
	parts := strings.Split(strings.Trim(key, "/"), "/")
	for i, part := range parts {
		if part == "screens" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

func (q *Qdrant) writeContext(client *QdrantClient) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(client.DeadlineMs)*time.Millisecond)
}

func prepareUpsertPoints(points []Point) []*qdrant.PointStruct {
	upsertPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		payload := make(map[string]*qdrant.Value, len(p.Payload)+1)
		payload[PayloadSampleId] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: p.Id}}
		for key, value := range p.Payload {
			payload[key] = adaptToPayloadValue(value)
		}
		upsertPoints = append(upsertPoints, &qdrant.PointStruct{
			Id:      &qdrant.PointId{PointIdOptions: &qdrant.PointId_Num{Num: PointId(p.Id)}},
			Payload: payload,
			Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: p.Vector}}},
		})
	}
	return upsertPoints
}

func adaptToPayloadValue(value interface{}) *qdrant.Value {
	switch v := value.(type) {
	case string:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
	case bool:
		return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: v}}
	case int:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(v)}}
	case int64:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: v}}
	case float32:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: float64(v)}}
	case float64:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: v}}
	default:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: fmt.Sprintf("%v", v)}}
	}
}

func parseBatchResponse(results []*qdrant.BatchResult, requestList []*QueryDetails) *BatchQueryResponse {
	response := &BatchQueryResponse{SimilarSamplesList: make(map[string][]*SimilarSample, len(results))}
	for i, batch := range results {
		if i >= len(requestList) {
			break
		}
		samples := make([]*SimilarSample, 0, len(batch.GetResult()))
		for _, point := range batch.GetResult() {
			sample := &SimilarSample{Score: point.GetScore(), Payload: make(map[string]string)}
			for key, value := range point.GetPayload() {
				sample.Payload[key] = payloadValueToString(value)
			}
			if id, ok := sample.Payload[PayloadSampleId]; ok {
				sample.Id = id
			} else {
				sample.Id = strconv.FormatUint(point.GetId().GetNum(), 10)
			}
			samples = append(samples, sample)
		}
		response.SimilarSamplesList[requestList[i].CacheKey] = samples
	}
	return response
}

func payloadValueToString(value *qdrant.Value) string {
	switch v := value.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return v.StringValue
	case *qdrant.Value_IntegerValue:
		return strconv.FormatInt(v.IntegerValue, 10)
	case *qdrant.Value_DoubleValue:
		return strconv.FormatFloat(v.DoubleValue, 'g', -1, 64)
	case *qdrant.Value_BoolValue:
		return strconv.FormatBool(v.BoolValue)
	default:
		return value.String()
	}
}

func metricTags(screen, embedding, version string) []string {
	return []string{"vector_db_type", "qdrant", "screen_name", screen, "embedding_name", embedding, "version", version}
}
