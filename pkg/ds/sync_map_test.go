package ds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncMapGetSet(t *testing.T) {
	m := NewSyncMap[string, string]()
	_, found := m.Get("missing")
	assert.False(t, found)

	m.Set("query", "SELECT * FROM features")
	v, found := m.Get("query")
	assert.True(t, found)
	assert.Equal(t, "SELECT * FROM features", v)
}

func TestSyncMapDelete(t *testing.T) {
	m := NewSyncMap[string, int]()
	m.Set("a", 1)
	m.Delete("a")
	_, found := m.Get("a")
	assert.False(t, found)
}

func TestSyncMapRange(t *testing.T) {
	m := NewSyncMap[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)
	sum := 0
	m.Range(func(_ string, v int) bool {
		sum += v
		return true
	})
	assert.Equal(t, 3, sum)
}
