package ds

import "sync"

// SyncMap is a typed wrapper over sync.Map.
type SyncMap[K comparable, V any] struct {
	m sync.Map
}

func NewSyncMap[K comparable, V any]() *SyncMap[K, V] {
	return &SyncMap[K, V]{}
}

func (s *SyncMap[K, V]) Get(key K) (V, bool) {
	var zero V
	value, ok := s.m.Load(key)
	if !ok {
		return zero, false
	}
	return value.(V), true
}

func (s *SyncMap[K, V]) Set(key K, value V) {
	s.m.Store(key, value)
}

func (s *SyncMap[K, V]) Delete(key K) {
	s.m.Delete(key)
}

func (s *SyncMap[K, V]) Range(f func(key K, value V) bool) {
	s.m.Range(func(k, v any) bool {
		return f(k.(K), v.(V))
	})
}
