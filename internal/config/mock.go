package config

import (
	"github.com/microscopium/microscopium/internal/config/enums"
	"github.com/stretchr/testify/mock"
)

type MockConfigManager struct {
	mock.Mock
}

var _ Manager = (*MockConfigManager)(nil)

func (m *MockConfigManager) GetConfig() (*Microscopium, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Microscopium), args.Error(1)
}

func (m *MockConfigManager) GetScreens() (map[string]Screen, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]Screen), args.Error(1)
}

func (m *MockConfigManager) GetScreenConfig(screen string) (*Screen, error) {
	args := m.Called(screen)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Screen), args.Error(1)
}

func (m *MockConfigManager) GetEmbeddingConfig(screen, embedding string) (*Embedding, error) {
	args := m.Called(screen, embedding)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Embedding), args.Error(1)
}

func (m *MockConfigManager) RegisterStore(confId int, db string, featureTable string, fragmentTable string) error {
	args := m.Called(confId, db, featureTable, fragmentTable)
	return args.Error(0)
}

func (m *MockConfigManager) RegisterScreen(screen string, cfg Screen) error {
	args := m.Called(screen, cfg)
	return args.Error(0)
}

func (m *MockConfigManager) RegisterEmbedding(screen string, embedding string, cfg Embedding) error {
	args := m.Called(screen, embedding, cfg)
	return args.Error(0)
}

func (m *MockConfigManager) UpdateScreenState(screen string, state enums.ScreenState) error {
	args := m.Called(screen, state)
	return args.Error(0)
}

func (m *MockConfigManager) UpdateVectorDbConfig(screen string, embedding string, vectorDbConfig VectorDbConfig) error {
	args := m.Called(screen, embedding, vectorDbConfig)
	return args.Error(0)
}

func (m *MockConfigManager) UpdateVectorDbReadVersion(screen string, embedding string, version int) error {
	args := m.Called(screen, embedding, version)
	return args.Error(0)
}

func (m *MockConfigManager) UpdateVectorDbWriteVersion(screen string, embedding string, version int) error {
	args := m.Called(screen, embedding, version)
	return args.Error(0)
}

func (m *MockConfigManager) RegisterWatchPathCallbackWithEvent(path string, callback func(key, value, eventType string) error) error {
	args := m.Called(path, callback)
	return args.Error(0)
}
