package featurestore

import "github.com/stretchr/testify/mock"

var _ Store = (*MockStore)(nil)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) BulkQuery(storeId string, bulkQuery *BulkQuery) error {
	args := m.Called(storeId, bulkQuery)
	return args.Error(0)
}

func (m *MockStore) BulkQueryConsumer(storeId string, bulkQuery *BulkQuery) (map[string]map[string]interface{}, error) {
	args := m.Called(storeId, bulkQuery)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	return args.Get(0).(map[string]map[string]interface{}), nil
}

func (m *MockStore) Persist(storeId string, ttl int, payload Payload) error {
	args := m.Called(storeId, ttl, payload)
	return args.Error(0)
}
