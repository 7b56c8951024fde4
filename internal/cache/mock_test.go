package cache

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/roster-graph/internal/model"
	"github.com/sells-group/roster-graph/internal/store"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetVerdict(ctx context.Context, namespace, fingerprint string) ([]byte, error) {
	args := m.Called(ctx, namespace, fingerprint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockStore) PutVerdict(ctx context.Context, namespace, fingerprint string, payload []byte) error {
	args := m.Called(ctx, namespace, fingerprint, payload)
	return args.Error(0)
}

func (m *mockStore) PurgeVerdicts(ctx context.Context, namespace string) (int, error) {
	args := m.Called(ctx, namespace)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) VerdictStats(ctx context.Context) ([]store.NamespaceStats, error) {
	args := m.Called(ctx)
	return args.Get(0).([]store.NamespaceStats), args.Error(1)
}

func (m *mockStore) LoadLedger(ctx context.Context, kind model.EntityKind) ([]model.IDEntry, error) {
	args := m.Called(ctx, kind)
	return args.Get(0).([]model.IDEntry), args.Error(1)
}

func (m *mockStore) AppendLedger(ctx context.Context, kind model.EntityKind, entries []model.IDEntry) error {
	args := m.Called(ctx, kind, entries)
	return args.Error(0)
}

func (m *mockStore) CreateRun(ctx context.Context) (*model.Run, error) {
	args := m.Called(ctx)
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) CompleteRun(ctx context.Context, run *model.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *mockStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	args := m.Called(ctx, runID)
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.Run), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
