package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/roster-graph/internal/classifier"
	"github.com/sells-group/roster-graph/internal/model"
	"github.com/sells-group/roster-graph/pkg/wikipedia"
)

type mockOracle struct {
	mock.Mock
}

func (m *mockOracle) GroupDuplicates(ctx context.Context, names []string) ([]model.DuplicateGroup, error) {
	args := m.Called(ctx, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DuplicateGroup), args.Error(1)
}

func (m *mockOracle) InferParent(ctx context.Context, name string, orgContext *string) (*string, error) {
	args := m.Called(ctx, name, orgContext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*string), args.Error(1)
}

type mockProfileExtractor struct {
	mock.Mock
}

func (m *mockProfileExtractor) ExtractProfile(ctx context.Context, req classifier.ProfileRequest) (model.Profile, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.Profile), args.Error(1)
}

type mockFactSource struct {
	mock.Mock
}

func (m *mockFactSource) Lookup(ctx context.Context, name string) (model.Facts, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(model.Facts), args.Error(1)
}

type mockWikiClient struct {
	mock.Mock
}

func (m *mockWikiClient) Search(ctx context.Context, query string) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}

func (m *mockWikiClient) Page(ctx context.Context, title string) (*wikipedia.Page, error) {
	args := m.Called(ctx, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wikipedia.Page), args.Error(1)
}

func (m *mockWikiClient) Lookup(ctx context.Context, name string) (*wikipedia.Page, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wikipedia.Page), args.Error(1)
}

func strPtr(s string) *string { return &s }
