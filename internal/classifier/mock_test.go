package classifier

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/roster-graph/pkg/anthropic"
	"github.com/sells-group/roster-graph/pkg/openaicompat"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	args := m.Called(ctx, system, prompt)
	return args.String(0), args.Error(1)
}

func (m *mockCompleter) Name() string { return "mock" }

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

type mockChatClient struct {
	mock.Mock
}

func (m *mockChatClient) Chat(ctx context.Context, req openaicompat.ChatRequest) (*openaicompat.ChatResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*openaicompat.ChatResponse), args.Error(1)
}
