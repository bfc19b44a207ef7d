package catalog

import (
	"context"

	"github.com/stretchr/testify/mock"

	"song-suggest/internal/retrieval"
)

// MockLoader is a mock implementation of Loader using testify/mock.
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) FetchAll(ctx context.Context) ([]retrieval.Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]retrieval.Record), args.Error(1)
}
