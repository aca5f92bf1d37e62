package vector

import (
	"github.com/microscopium/microscopium/internal/config/enums"
)

func GetRepository(vectorDbType enums.VectorDbType) Database {
	switch vectorDbType {
	case enums.QDRANT:
		return initQdrantInstance()
	case enums.EXHAUSTIVE:
		return initExhaustiveInstance()
	default:
		return nil
	}
}
