package browser

import (
	"context"

	"github.com/stretchr/testify/mock"

	"dgexport/clients"
	"dgexport/models"
)

// MockAuthSurface is a mock implementation of the AuthSurface interface
type MockAuthSurface struct {
	mock.Mock
}

func (m *MockAuthSurface) Open(ctx context.Context, url string, geometry models.WindowGeometry) (clients.Window, error) {
	args := m.Called(ctx, url, geometry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(clients.Window), args.Error(1)
}

// MockWindow is a mock implementation of the Window interface
type MockWindow struct {
	mock.Mock
}

func (m *MockWindow) Close() error {
	args := m.Called()
	return args.Error(0)
}
