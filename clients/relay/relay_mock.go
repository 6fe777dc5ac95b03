package relay

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"
)

// MockRelayClient is a mock implementation of the RelayClient interface
type MockRelayClient struct {
	mock.Mock
}

func (m *MockRelayClient) ExchangeState(ctx context.Context, state string) (mo.Option[string], error) {
	args := m.Called(ctx, state)
	return args.Get(0).(mo.Option[string]), args.Error(1)
}
