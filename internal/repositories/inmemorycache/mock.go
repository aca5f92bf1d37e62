package inmemorycache

import (
	"github.com/microscopium/microscopium/internal/repositories"
	"github.com/stretchr/testify/mock"
)

var _ Database = (*MockDatabase)(nil)

type MockDatabase struct {
	mock.Mock
}

func (m *MockDatabase) MGet(keys map[string]repositories.CacheStruct, metricTags []string) map[string][]byte {
	args := m.Called(keys, metricTags)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(map[string][]byte)
}

func (m *MockDatabase) MSet(responseData map[string][]byte, missingCacheKeys map[string]repositories.CacheStruct, ttl int, metricTags []string) {
	m.Called(responseData, missingCacheKeys, ttl, metricTags)
}
