package featurestore

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/pkg/ds"
	"github.com/microscopium/microscopium/pkg/metric"
	"github.com/microscopium/microscopium/pkg/scylla"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// FeatureStore persists per-sample feature vectors in ScyllaDB, one table
// per configured store, keyed by (embedding_name, version, id).
type FeatureStore struct {
	Stores        map[string]StoreData
	configManager config.Manager
	sessionMap    map[int]*gocql.Session
}

type StoreData struct {
	Session   *gocql.Session
	TableName string
	Keyspace  string
}

const (
	envPrefix      = "STORAGE_FEATURE_STORE"
	featureColumns = "features"
	allColumns     = "*"
)

func initFeatureStore() Store {
	if featureStore == nil {
		once.Do(func() {
			queryCache = ds.NewSyncMap[string, string]()
			sessionMap := InitSessions()
			stores, err := initializeStores(sessionMap)
			if err != nil {
				log.Panic().Msgf("Failed to initialize feature stores: %v", err)
			}
			featureStore = &FeatureStore{
				Stores:        stores,
				configManager: config.NewManager(config.DefaultVersion),
				sessionMap:    sessionMap,
			}
		})
	}
	return featureStore
}

func initializeStores(sessionMap map[int]*gocql.Session) (map[string]StoreData, error) {
	stores := make(map[string]StoreData)
	configManager := config.NewManager(config.DefaultVersion)
	microscopiumConfig, err := configManager.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("error getting stores from etcd: %w", err)
	}
	for storeId, data := range microscopiumConfig.Storage.Stores {
		store, err := createStoreData(data, sessionMap)
		if err != nil {
			log.Error().Msgf("Failed to create store data for storeId %s: %v", storeId, err)
			continue
		}
		stores[storeId] = store
	}
	return stores, nil
}

func InitSessions() map[int]*gocql.Session {
	connectionMap := make(map[int]*gocql.Session)
	count := appConfig.StorageFeatureDbCount
	for configId := 1; configId <= count; configId++ {
		configPrefix := fmt.Sprintf("%s_%d", envPrefix, configId)
		clusterConfig, err := scylla.BuildClusterConfigFromEnv(configPrefix)
		if err != nil {
			log.Panic().Msgf("error building scylla db cluster for configPrefix %v: %v", configPrefix, err)
		}
		session, err := clusterConfig.CreateSession()
		if err != nil {
			log.Panic().Msgf("Error connecting scylla db: %#v", err)
		}
		connectionMap[configId] = session
	}
	return connectionMap
}

func createStoreData(data config.Data, sessionMap map[int]*gocql.Session) (StoreData, error) {
	if _, ok := sessionMap[data.ConfId]; !ok {
		return StoreData{}, fmt.Errorf("session not found for config id %d", data.ConfId)
	}
	return StoreData{
		Session:   sessionMap[data.ConfId],
		TableName: data.FeatureTable,
		Keyspace:  viper.GetString(fmt.Sprintf("%s_%d_KEYSPACE", envPrefix, data.ConfId)),
	}, nil
}

// BulkQuery fills in the feature vector for every cache key, one async read
// per sample.
func (f *FeatureStore) BulkQuery(storeId string, bulkQuery *BulkQuery) error {
	startTime := time.Now()
	metric.Count("feature_store_db_retrieve_count", int64(len(bulkQuery.CacheKeys)), []string{
		metric.TagAsString("store_id", storeId),
	})
	preparedQuery := createRetrieveQuery(f.Stores[storeId], featureColumns, "features")
	if err := bulkExecuteAsync(bulkQuery, preparedQuery); err != nil {
		return err
	}
	metric.Timing("feature_store_db_retrieve_latency", time.Since(startTime), []string{
		metric.TagAsString("store_id", storeId),
	})
	return nil
}

// BulkQueryConsumer retrieves full rows for the given sample ids. The
// indexer uses it to assemble upsert payloads.
func (f *FeatureStore) BulkQueryConsumer(storeId string, bulkQuery *BulkQuery) (map[string]map[string]interface{}, error) {
	startTime := time.Now()
	metric.Count("feature_store_db_retrieve_count", int64(len(bulkQuery.SampleIds)), []string{
		metric.TagAsString("store_id", storeId),
	})
	preparedQuery := createRetrieveQuery(f.Stores[storeId], allColumns, "consumer")
	payloads := bulkExecuteAsyncForConsumer(bulkQuery, preparedQuery)
	metric.Timing("feature_store_db_retrieve_latency", time.Since(startTime), []string{
		metric.TagAsString("store_id", storeId),
	})
	return payloads, nil
}

// Persist stores the payload with an optional TTL.
func (f *FeatureStore) Persist(storeId string, ttl int, payload Payload) error {
	startTime := time.Now()
	metric.Incr("feature_store_db_persist_count", []string{metric.TagAsString("store_id", storeId)})
	columns := preparePersistColumns(payload)
	preparedQuery, columnNames := createPersistQuery(f.Stores[storeId], columns, ttl)
	if err := executePersist(columns, preparedQuery, columnNames); err != nil {
		log.Error().Msgf("Error persisting features for sample %v: %v", payload.SampleId, err)
		metric.Incr("feature_store_db_persist_failure_count", []string{
			metric.TagAsString("store_id", storeId),
		})
		return err
	}
	metric.Timing("feature_store_db_persist_latency", time.Since(startTime), []string{
		metric.TagAsString("store_id", storeId),
	})
	return nil
}

func preparePersistColumns(payload Payload) map[string]interface{} {
	return map[string]interface{}{
		Id:            payload.SampleId,
		EmbeddingName: payload.Embedding,
		Version:       payload.Version,
		Features:      payload.Features,
		ToBeIndexed:   payload.ToBeIndexed,
	}
}

func bulkExecuteAsync(bulkQuery *BulkQuery, preparedQuery *gocql.Query) error {
	var wg sync.WaitGroup
	type featureResult struct {
		key      string
		features []float32
	}

	resultChan := make(chan featureResult, len(bulkQuery.CacheKeys))
	sampleIds := make(map[string]string, len(bulkQuery.CacheKeys))
	for key, cacheStruct := range bulkQuery.CacheKeys {
		sampleIds[key] = cacheStruct.SampleId
	}

	for key := range bulkQuery.CacheKeys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			query := *preparedQuery
			(&query).Bind(bulkQuery.Embedding, bulkQuery.Version, sampleIds[key]).Consistency(gocql.One)
			var features []float32
			err := (&query).Scan(&features)
			if err != nil && err != gocql.ErrNotFound {
				metric.Incr("feature_store_db_retrieve_failure", []string{"db", "scylla"})
				log.Error().Msgf("Error executing cql query for key %s: %v", key, err)
				return
			}
			resultChan <- featureResult{key: key, features: features}
		}(key)
	}

	wg.Wait()
	close(resultChan)

	for res := range resultChan {
		cacheStruct := bulkQuery.CacheKeys[res.key]
		cacheStruct.Embedding = res.features
		bulkQuery.CacheKeys[res.key] = cacheStruct
	}
	return nil
}

func bulkExecuteAsyncForConsumer(bulkQuery *BulkQuery, preparedQuery *gocql.Query) map[string]map[string]interface{} {
	var wg sync.WaitGroup
	var mu sync.Mutex
	payloads := make(map[string]map[string]interface{})
	for _, sampleId := range bulkQuery.SampleIds {
		wg.Add(1)
		go func(sampleId string) {
			defer wg.Done()
			query := *preparedQuery
			(&query).Bind(bulkQuery.Embedding, bulkQuery.Version, sampleId).Consistency(gocql.One)
			res, err := (&query).Iter().SliceMap()
			if err != nil {
				metric.Incr("feature_store_db_retrieve_failure", []string{"db", "scylla"})
				log.Error().Msgf("Error executing cql query for sample %s: %v", sampleId, err)
				return
			}
			mu.Lock()
			if len(res) != 0 {
				payloads[sampleId] = res[0]
			}
			mu.Unlock()
		}(sampleId)
	}

	wg.Wait()
	return payloads
}

func executePersist(columns map[string]interface{}, preparedQuery *gocql.Query, columnNames []string) error {
	bindValues := make([]interface{}, 0, len(columnNames))
	for _, column := range columnNames {
		bindValues = append(bindValues, columns[column])
	}
	preparedQuery.Bind(bindValues...)
	preparedQuery.Consistency(gocql.One)
	if _, err := preparedQuery.Iter().SliceMap(); err != nil {
		return err
	}
	return nil
}

func buildRetrieveQuery(keyspace, table, columns string) string {
	return fmt.Sprintf(GenericRetrieveQuery, columns, keyspace, table, EmbeddingName, Version, Id)
}

func buildPersistQuery(keyspace, table string, columnNames []string, ttl int) string {
	placeholders := make([]string, len(columnNames))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	return fmt.Sprintf(GenericPersistQuery, keyspace, table,
		strings.Join(columnNames, ", "), strings.Join(placeholders, ", "), ttl)
}

func createRetrieveQuery(store StoreData, columns, queryType string) *gocql.Query {
	cacheKey := store.TableName + "_retrieve_" + queryType
	query, found := queryCache.Get(cacheKey)
	if !found {
		query = buildRetrieveQuery(store.Keyspace, store.TableName, columns)
		queryCache.Set(cacheKey, query)
	}
	return store.Session.Query(query)
}

func createPersistQuery(store StoreData, columns map[string]interface{}, ttl int) (*gocql.Query, []string) {
	columnNames := make([]string, 0, len(columns))
	for col := range columns {
		columnNames = append(columnNames, col)
	}
	sort.Strings(columnNames)
	cacheKey := store.TableName + "_" + strings.Join(columnNames, ",") + "_persist"
	query, found := queryCache.Get(cacheKey)
	if !found {
		query = buildPersistQuery(store.Keyspace, store.TableName, columnNames, ttl)
		queryCache.Set(cacheKey, query)
	}
	return store.Session.Query(query), columnNames
}
