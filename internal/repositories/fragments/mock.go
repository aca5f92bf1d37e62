package fragments

import "github.com/stretchr/testify/mock"

var _ Database = (*MockDatabase)(nil)

type MockDatabase struct {
	mock.Mock
}

func (m *MockDatabase) Query(storeId string, query *Query) (map[string]interface{}, error) {
	args := m.Called(storeId, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *MockDatabase) Persist(storeId string, sampleId string, columns map[string]interface{}) error {
	args := m.Called(storeId, sampleId, columns)
	return args.Error(0)
}
