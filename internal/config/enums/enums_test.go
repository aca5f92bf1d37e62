package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorDbTypeConstants(t *testing.T) {
	assert.Equal(t, VectorDbType("QDRANT"), QDRANT)
	assert.Equal(t, VectorDbType("EXHAUSTIVE"), EXHAUSTIVE)
}

func TestDistanceConstants(t *testing.T) {
	assert.Equal(t, Distance("COSINE"), COSINE)
	assert.Equal(t, Distance("EUCLIDEAN"), EUCLIDEAN)
}

func TestScreenStateConstants(t *testing.T) {
	assert.Equal(t, ScreenState("FEATURE_INGESTION_STARTED"), FEATURE_INGESTION_STARTED)
	assert.Equal(t, ScreenState("FEATURE_INGESTION_COMPLETED"), FEATURE_INGESTION_COMPLETED)
	assert.Equal(t, ScreenState("INDEXING_STARTED"), INDEXING_STARTED)
	assert.Equal(t, ScreenState("INDEXING_COMPLETED"), INDEXING_COMPLETED)
	assert.Equal(t, ScreenState("READY"), READY)
}
