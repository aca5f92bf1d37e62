package indexer

import "sync"

var (
	once   sync.Once
	VECTOR = "VECTOR"
)

func NewHandler(handlerType string) Handler {
	switch handlerType {
	case VECTOR:
		return initVectorIndexerHandler()
	default:
		return nil
	}
}

// SetInstance swaps the singleton. Tests only.
func SetInstance(h Handler) {
	vectorHandler = h
	once.Do(func() {})
}
