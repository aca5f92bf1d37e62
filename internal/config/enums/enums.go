package enums

// VectorDbType selects the similarity backend for an embedding.
type VectorDbType string

const (
	QDRANT     VectorDbType = "QDRANT"
	EXHAUSTIVE VectorDbType = "EXHAUSTIVE"
)

// Distance is the metric used for nearest-neighbour lookups.
type Distance string

const (
	COSINE    Distance = "COSINE"
	EUCLIDEAN Distance = "EUCLIDEAN"
)

// ScreenState tracks ingestion progress for a screen.
type ScreenState string

const (
	FEATURE_INGESTION_STARTED   ScreenState = "FEATURE_INGESTION_STARTED"
	FEATURE_INGESTION_COMPLETED ScreenState = "FEATURE_INGESTION_COMPLETED"
	INDEXING_STARTED            ScreenState = "INDEXING_STARTED"
	INDEXING_COMPLETED          ScreenState = "INDEXING_COMPLETED"
	READY                       ScreenState = "READY"
)
