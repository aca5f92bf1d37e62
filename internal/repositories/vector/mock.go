package vector

import "github.com/stretchr/testify/mock"

// Ensure MockDatabase implements Database interface
var _ Database = (*MockDatabase)(nil)

type MockDatabase struct {
	mock.Mock
}

func (m *MockDatabase) CreateCollection(screen string, embedding string, version int) error {
	args := m.Called(screen, embedding, version)
	return args.Error(0)
}

func (m *MockDatabase) DeleteCollection(screen string, embedding string, version int) error {
	args := m.Called(screen, embedding, version)
	return args.Error(0)
}

func (m *MockDatabase) CreateFieldIndexes(screen string, embedding string, version int) error {
	args := m.Called(screen, embedding, version)
	return args.Error(0)
}

func (m *MockDatabase) BulkUpsert(upsertRequest UpsertRequest) error {
	args := m.Called(upsertRequest)
	return args.Error(0)
}

func (m *MockDatabase) BulkDelete(deleteRequest DeleteRequest) error {
	args := m.Called(deleteRequest)
	return args.Error(0)
}

func (m *MockDatabase) BatchQuery(request *BatchQueryRequest, metricTags []string) (*BatchQueryResponse, error) {
	args := m.Called(request, metricTags)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	return args.Get(0).(*BatchQueryResponse), nil
}

func (m *MockDatabase) GetCollectionInfo(screen string, embedding string, version int) (*CollectionInfoResponse, error) {
	args := m.Called(screen, embedding, version)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	return args.Get(0).(*CollectionInfoResponse), nil
}

func (m *MockDatabase) RefreshClients(key, value, eventType string) error {
	args := m.Called(key, value, eventType)
	return args.Error(0)
}

// SetTestInstances sets the package-level singletons. Use only in tests.
func SetTestInstances(qdrant, exhaustive Database) {
	qdrantDb = qdrant
	exhaustiveDb = exhaustive
}
