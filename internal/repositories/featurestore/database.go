package featurestore

const (
	GenericRetrieveQuery = "SELECT %s FROM %s.%s WHERE %s = ? AND %s = ? AND %s = ?"
	GenericPersistQuery  = "INSERT INTO %s.%s (%s) VALUES (%s) using TTL %v"
	Id                   = "id"
	EmbeddingName        = "embedding_name"
	Version              = "version"
	Features             = "features"
	ToBeIndexed          = "to_be_indexed"
)

type Store interface {
	BulkQuery(storeId string, bulkQuery *BulkQuery) error
	BulkQueryConsumer(storeId string, bulkQuery *BulkQuery) (map[string]map[string]interface{}, error)
	Persist(storeId string, ttl int, payload Payload) error
}
