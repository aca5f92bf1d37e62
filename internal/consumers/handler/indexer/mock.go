package indexer

import "github.com/stretchr/testify/mock"

var _ Handler = (*MockHandler)(nil)

type MockHandler struct {
	mock.Mock
}

func (m *MockHandler) Process(event Event) error {
	args := m.Called(event)
	return args.Error(0)
}
