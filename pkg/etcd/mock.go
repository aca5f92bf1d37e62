package etcd

import (
	"context"
	"strings"
	"sync"
)

// Mock is an in-memory Client for tests.
type Mock struct {
	mu        sync.Mutex
	Data      map[string]string
	callbacks map[string][]WatchCallback
}

func NewMock() *Mock {
	return &Mock{
		Data:      make(map[string]string),
		callbacks: make(map[string][]WatchCallback),
	}
}

func (m *Mock) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Data[key], nil
}

func (m *Mock) GetPrefix(_ context.Context, prefix string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string)
	for k, v := range m.Data {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out, nil
}

// Put stores the value and fires any callbacks registered for a matching prefix.
func (m *Mock) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.Data[key] = value
	var fire []WatchCallback
	for prefix, cbs := range m.callbacks {
		if strings.HasPrefix(key, prefix) {
			fire = append(fire, cbs...)
		}
	}
	m.mu.Unlock()
	for _, cb := range fire {
		_ = cb(key, value, "PUT")
	}
	return nil
}

func (m *Mock) RegisterWatchCallback(prefix string, cb WatchCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks[prefix] = append(m.callbacks[prefix], cb)
}
