package inmemorycache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) InMemoryCache {
	t.Helper()
	return newV1InMemoryCacheWithConf("test", 1)
}

func TestSetGet(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, cache.Set([]byte("sample-1"), []byte("payload")))
	v, err := cache.Get([]byte("sample-1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), v)
}

func TestGetMissing(t *testing.T) {
	cache := newTestCache(t)
	_, err := cache.Get([]byte("absent"))
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, cache.Set([]byte("k"), []byte("v")))
	assert.True(t, cache.Delete([]byte("k")))
	_, err := cache.Get([]byte("k"))
	assert.Error(t, err)
}

func TestRejectsBadSize(t *testing.T) {
	assert.Panics(t, func() {
		newV1InMemoryCacheWithConf("test", 0)
	})
}
