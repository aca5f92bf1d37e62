package indexer

// Handler applies a batch of index mutations to a vector backend.
type Handler interface {
	Process(event Event) error
}
