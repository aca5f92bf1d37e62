package repositories

// CacheStruct tracks one slot of a similar-sample request while it moves
// through the cache tiers. Index records the positions in the original
// request list that share this cache key.
type CacheStruct struct {
	Index     []int
	SampleId  string
	Embedding []float32
}
