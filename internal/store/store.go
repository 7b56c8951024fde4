package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roster-graph/internal/model"
)

// Namespaces used for classifier and fact-source verdicts.
const (
	NamespaceDedup     = "dedup"
	NamespaceHierarchy = "hierarchy"
	NamespaceFacts     = "facts"
	NamespaceProfile   = "profile"
)

// NamespaceStats counts stored verdicts per namespace.
type NamespaceStats struct {
	Namespace string    `json:"namespace"`
	Entries   int       `json:"entries"`
	LastWrite time.Time `json:"last_write"`
}

// Store defines durable persistence for verdicts, the identifier ledger and
// run records.
type Store interface {
	// Verdicts. GetVerdict returns nil, nil on a miss. PutVerdict upserts.
	GetVerdict(ctx context.Context, namespace, fingerprint string) ([]byte, error)
	PutVerdict(ctx context.Context, namespace, fingerprint string, payload []byte) error
	PurgeVerdicts(ctx context.Context, namespace string) (int, error)
	VerdictStats(ctx context.Context) ([]NamespaceStats, error)

	// Identifier ledger (append-only)
	LoadLedger(ctx context.Context, kind model.EntityKind) ([]model.IDEntry, error)
	AppendLedger(ctx context.Context, kind model.EntityKind, entries []model.IDEntry) error

	// Runs
	CreateRun(ctx context.Context) (*model.Run, error)
	CompleteRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the store for driver and runs migrations.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case "sqlite", "":
		s, err = NewSQLite(dsn)
	case "postgres":
		s, err = NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unsupported driver: %s", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}
