package resolve

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roster-graph/internal/cache"
	"github.com/sells-group/roster-graph/internal/model"
	"github.com/sells-group/roster-graph/internal/store"
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

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	st, err := store.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return cache.New(st, time.Minute)
}

func strPtr(s string) *string { return &s }
