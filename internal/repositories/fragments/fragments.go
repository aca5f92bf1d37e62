package fragments

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"github.com/microscopium/microscopium/internal/config"
	"github.com/microscopium/microscopium/pkg/metric"
	"github.com/microscopium/microscopium/pkg/scylla"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	queryCache  sync.Map
	fragmentsDb Database
	once        sync.Once
)

// Fragments holds per-channel feature fragments until every channel of a
// sample has arrived.
type Fragments struct {
	Stores        map[string]Store
	configManager config.Manager
	sessionMap    map[int]*gocql.Session
}

type Store struct {
	Session   *gocql.Session
	TableName string
	Keyspace  string
}

const (
	envPrefix = "STORAGE_FRAGMENT_DB"
)

func initFragmentsDb() Database {
	if fragmentsDb == nil {
		once.Do(func() {
			stores := make(map[string]Store)
			configManager := config.NewManager(config.DefaultVersion)
			sessionMap := InitSessions()
			microscopiumConfig, err := configManager.GetConfig()
			if err != nil {
				log.Panic().Msgf("Error getting stores from etcd: %v", err)
			}
			for storeId, data := range microscopiumConfig.Storage.Stores {
				store, err := initStore(data, sessionMap)
				if err != nil {
					log.Fatal().Msgf("Failed to initialize store %s: %v", storeId, err)
				}
				stores[storeId] = store
			}
			fragmentsDb = &Fragments{
				Stores:        stores,
				configManager: configManager,
				sessionMap:    sessionMap,
			}
		})
	}
	return fragmentsDb
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

func initStore(data config.Data, sessionMap map[int]*gocql.Session) (Store, error) {
	if _, ok := sessionMap[data.ConfId]; !ok {
		return Store{}, fmt.Errorf("session not found for config id %d", data.ConfId)
	}
	return Store{
		Session:   sessionMap[data.ConfId],
		TableName: data.FragmentTable,
		Keyspace:  viper.GetString(fmt.Sprintf("%s_%d_KEYSPACE", envPrefix, data.ConfId)),
	}, nil
}

// Query retrieves the accumulated fragment row for a sample.
func (f *Fragments) Query(storeId string, query *Query) (map[string]interface{}, error) {
	startTime := time.Now()
	metric.Incr("fragment_db_query_count", []string{metric.TagAsString("store_id", storeId)})
	preparedQuery := createRetrievePreparedQuery(f.Stores[storeId])
	row := executeRetrieve(query, preparedQuery)
	metric.Timing("fragment_db_retrieve_latency", time.Since(startTime), []string{
		metric.TagAsString("store_id", storeId),
	})
	return row, nil
}

// Persist writes the given fragment columns for a sample.
func (f *Fragments) Persist(storeId string, sampleId string, columns map[string]interface{}) error {
	startTime := time.Now()
	metric.Incr("fragment_db_persist_count", []string{metric.TagAsString("store_id", storeId)})
	preparedQuery, sortedColumns := createPersistPreparedQuery(f.Stores[storeId], columns)
	if err := executePersist(sampleId, columns, preparedQuery, sortedColumns); err != nil {
		log.Error().Msgf("Error persisting fragments for sample %v: %v", sampleId, err)
		return err
	}
	metric.Timing("fragment_db_persist_latency", time.Since(startTime), []string{
		metric.TagAsString("store_id", storeId),
	})
	return nil
}

func executeRetrieve(query *Query, preparedQuery *gocql.Query) map[string]interface{} {
	preparedQuery.Bind(query.SampleId).Consistency(gocql.One)
	res, err := preparedQuery.Iter().SliceMap()
	if err != nil {
		log.Error().Msgf("Error executing cql query %v: %v", query, err)
		return nil
	}
	if len(res) == 0 {
		return make(map[string]interface{})
	}
	return res[0]
}

func executePersist(sampleId string, columns map[string]interface{}, preparedQuery *gocql.Query, sortedColumns []string) error {
	boundValues := make([]interface{}, 0, len(sortedColumns)+1)
	for _, col := range sortedColumns {
		boundValues = append(boundValues, columns[col])
	}
	boundValues = append(boundValues, sampleId)
	preparedQuery.Bind(boundValues...)
	preparedQuery.Consistency(gocql.One)
	if _, err := preparedQuery.Iter().SliceMap(); err != nil {
		log.Error().Msgf("Error executing cql query for sample %v: %v", sampleId, err)
		return err
	}
	return nil
}

func createRetrievePreparedQuery(store Store) *gocql.Query {
	cachedQuery, found := queryCache.Load(store.TableName + "_retrieve")
	var query string
	if !found {
		query = fmt.Sprintf(GenericRetrieveQuery, store.Keyspace, store.TableName, Id)
		queryCache.Store(store.TableName+"_retrieve", query)
	} else {
		query = cachedQuery.(string)
	}
	return store.Session.Query(query)
}

func createPersistPreparedQuery(store Store, columns map[string]interface{}) (*gocql.Query, []string) {
	columnNames := make([]string, 0, len(columns))
	placeholders := make([]string, 0, len(columns))
	for col := range columns {
		columnNames = append(columnNames, col)
		placeholders = append(placeholders, "?")
	}
	sort.Strings(columnNames)
	columnsStr := strings.Join(columnNames, ", ") + ", " + Id
	cacheKey := store.TableName + "_" + columnsStr + "_persist"
	cachedQuery, found := queryCache.Load(cacheKey)
	var query string
	if !found {
		placeholdersStr := strings.Join(placeholders, ", ") + ", ?"
		query = fmt.Sprintf(GenericPersistQuery, store.Keyspace, store.TableName, columnsStr, placeholdersStr)
		queryCache.Store(cacheKey, query)
	} else {
		query = cachedQuery.(string)
	}
	return store.Session.Query(query), columnNames
}
