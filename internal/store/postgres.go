package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/roster-graph/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS verdicts (
	namespace   TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	payload     JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, fingerprint)
);

CREATE TABLE IF NOT EXISTS id_ledger (
	kind       TEXT NOT NULL,
	name       TEXT NOT NULL,
	id         TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (kind, name),
	UNIQUE (kind, id)
);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	status     TEXT NOT NULL DEFAULT 'running',
	stage      TEXT NOT NULL DEFAULT 'none',
	summary    JSONB,
	report     JSONB,
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_id_ledger_kind_seq ON id_ledger(kind, seq);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetVerdict(ctx context.Context, namespace, fingerprint string) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM verdicts WHERE namespace = $1 AND fingerprint = $2`,
		namespace, fingerprint,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get verdict %s/%s", namespace, fingerprint)
	}
	return payload, nil
}

func (s *PostgresStore) PutVerdict(ctx context.Context, namespace, fingerprint string, payload []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO verdicts (namespace, fingerprint, payload, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (namespace, fingerprint) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		namespace, fingerprint, payload, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: put verdict %s/%s", namespace, fingerprint)
}

func (s *PostgresStore) PurgeVerdicts(ctx context.Context, namespace string) (int, error) {
	var (
		tag pgconn.CommandTag
		err error
	)
	if namespace == "" {
		tag, err = s.pool.Exec(ctx, `DELETE FROM verdicts`)
	} else {
		tag, err = s.pool.Exec(ctx, `DELETE FROM verdicts WHERE namespace = $1`, namespace)
	}
	if err != nil {
		return 0, eris.Wrap(err, "postgres: purge verdicts")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) VerdictStats(ctx context.Context) ([]NamespaceStats, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT namespace, COUNT(*), MAX(updated_at) FROM verdicts GROUP BY namespace ORDER BY namespace`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: verdict stats")
	}
	defer rows.Close()

	var stats []NamespaceStats
	for rows.Next() {
		var st NamespaceStats
		if err := rows.Scan(&st.Namespace, &st.Entries, &st.LastWrite); err != nil {
			return nil, eris.Wrap(err, "postgres: scan verdict stats")
		}
		stats = append(stats, st)
	}
	return stats, eris.Wrap(rows.Err(), "postgres: verdict stats iterate")
}

func (s *PostgresStore) LoadLedger(ctx context.Context, kind model.EntityKind) ([]model.IDEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, id, seq FROM id_ledger WHERE kind = $1 ORDER BY seq`,
		string(kind),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: load ledger %s", kind)
	}
	defer rows.Close()

	var entries []model.IDEntry
	for rows.Next() {
		var e model.IDEntry
		if err := rows.Scan(&e.Name, &e.ID, &e.Seq); err != nil {
			return nil, eris.Wrap(err, "postgres: scan ledger entry")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: load ledger iterate")
}

func (s *PostgresStore) AppendLedger(ctx context.Context, kind model.EntityKind, entries []model.IDEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin ledger append")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO id_ledger (kind, name, id, seq, created_at) VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (kind, name) DO NOTHING`,
			string(kind), e.Name, e.ID, e.Seq, now,
		); err != nil {
			return eris.Wrapf(err, "postgres: append ledger %s %s", kind, e.ID)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit ledger append")
}

func (s *PostgresStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, stage, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, string(model.RunStatusRunning), model.StageNone.String(), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusRunning,
		Stage:     model.StageNone.String(),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, run *model.Run) error {
	summaryJSON, reportJSON, err := marshalRunResult(run)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, stage = $2, summary = $3, report = $4, error = $5, updated_at = $6 WHERE id = $7`,
		string(run.Status), run.Stage, summaryJSON, reportJSON, run.Error, time.Now().UTC(), run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", run.ID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, status, stage, summary, report, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)
	r, err := scanPostgresRun(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, stage, summary, report, error, created_at, updated_at FROM runs
		 ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func scanPostgresRun(row scannable) (*model.Run, error) {
	var r model.Run
	var status string
	var summaryJSON, reportJSON []byte

	if err := row.Scan(&r.ID, &status, &r.Stage, &summaryJSON, &reportJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Status = model.RunStatus(status)

	if summaryJSON != nil {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal(summaryJSON, r.Summary); err != nil {
			return nil, eris.Wrap(err, "unmarshal summary")
		}
	}
	if reportJSON != nil {
		r.Report = &model.Report{}
		if err := json.Unmarshal(reportJSON, r.Report); err != nil {
			return nil, eris.Wrap(err, "unmarshal report")
		}
	}
	return &r, nil
}
