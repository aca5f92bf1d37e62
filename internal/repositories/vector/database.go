package vector

// Database is the similarity backend for a screen's embeddings.
type Database interface {
	CreateCollection(screen string, embedding string, version int) error
	DeleteCollection(screen string, embedding string, version int) error
	CreateFieldIndexes(screen string, embedding string, version int) error
	BulkUpsert(upsertRequest UpsertRequest) error
	BulkDelete(deleteRequest DeleteRequest) error
	// BatchQuery runs one nearest-neighbour search per entry in the
	// request list against a single collection.
	BatchQuery(request *BatchQueryRequest, metricTags []string) (*BatchQueryResponse, error)
	GetCollectionInfo(screen string, embedding string, version int) (*CollectionInfoResponse, error)
	RefreshClients(key, value, eventType string) error
}
