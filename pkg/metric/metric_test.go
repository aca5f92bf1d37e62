package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairTags(t *testing.T) {
	tags := pairTags([]string{"screen", "bbbc021", "embedding", "pca"})
	assert.Equal(t, []string{"screen:bbbc021", "embedding:pca"}, tags)
}

func TestPairTagsPassThrough(t *testing.T) {
	tags := pairTags([]string{"db:scylla", "screen", "bbbc021"})
	assert.Equal(t, []string{"db:scylla", "screen:bbbc021"}, tags)
}

func TestPairTagsOdd(t *testing.T) {
	tags := pairTags([]string{"orphan"})
	assert.Equal(t, []string{"orphan"}, tags)
}

func TestBuildTag(t *testing.T) {
	tags := BuildTag(NewTag("path", "/health"), NewTag("method", "GET"))
	assert.Equal(t, []string{"path", "/health", "method", "GET"}, tags)
}

func TestTagAsString(t *testing.T) {
	assert.Equal(t, "store_id:1", TagAsString("store_id", "1"))
}
