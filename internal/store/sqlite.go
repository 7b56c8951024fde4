package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/roster-graph/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS verdicts (
	namespace   TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	payload     TEXT NOT NULL,
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (namespace, fingerprint)
);

CREATE TABLE IF NOT EXISTS id_ledger (
	kind       TEXT NOT NULL,
	name       TEXT NOT NULL,
	id         TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (kind, name),
	UNIQUE (kind, id)
);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'running',
	stage      TEXT NOT NULL DEFAULT 'none',
	summary    TEXT,
	report     TEXT,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_id_ledger_kind_seq ON id_ledger(kind, seq);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetVerdict(ctx context.Context, namespace, fingerprint string) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM verdicts WHERE namespace = ? AND fingerprint = ?`,
		namespace, fingerprint,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get verdict %s/%s", namespace, fingerprint)
	}
	return []byte(payload), nil
}

func (s *SQLiteStore) PutVerdict(ctx context.Context, namespace, fingerprint string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO verdicts (namespace, fingerprint, payload, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (namespace, fingerprint) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		namespace, fingerprint, string(payload), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: put verdict %s/%s", namespace, fingerprint)
}

func (s *SQLiteStore) PurgeVerdicts(ctx context.Context, namespace string) (int, error) {
	var (
		res sql.Result
		err error
	)
	if namespace == "" {
		res, err = s.db.ExecContext(ctx, `DELETE FROM verdicts`)
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM verdicts WHERE namespace = ?`, namespace)
	}
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge verdicts")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) VerdictStats(ctx context.Context) ([]NamespaceStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT namespace, COUNT(*), MAX(updated_at) FROM verdicts GROUP BY namespace ORDER BY namespace`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: verdict stats")
	}
	defer rows.Close()

	var stats []NamespaceStats
	for rows.Next() {
		var st NamespaceStats
		var last sql.NullString
		if err := rows.Scan(&st.Namespace, &st.Entries, &last); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan verdict stats")
		}
		if last.Valid {
			st.LastWrite = parseSQLiteTime(last.String)
		}
		stats = append(stats, st)
	}
	return stats, eris.Wrap(rows.Err(), "sqlite: verdict stats iterate")
}

func (s *SQLiteStore) LoadLedger(ctx context.Context, kind model.EntityKind) ([]model.IDEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, id, seq FROM id_ledger WHERE kind = ? ORDER BY seq`,
		string(kind),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: load ledger %s", kind)
	}
	defer rows.Close()

	var entries []model.IDEntry
	for rows.Next() {
		var e model.IDEntry
		if err := rows.Scan(&e.Name, &e.ID, &e.Seq); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan ledger entry")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: load ledger iterate")
}

func (s *SQLiteStore) AppendLedger(ctx context.Context, kind model.EntityKind, entries []model.IDEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin ledger append")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO id_ledger (kind, name, id, seq, created_at) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (kind, name) DO NOTHING`,
			string(kind), e.Name, e.ID, e.Seq, now,
		); err != nil {
			return eris.Wrapf(err, "sqlite: append ledger %s %s", kind, e.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit ledger append")
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, stage, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(model.RunStatusRunning), model.StageNone.String(), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusRunning,
		Stage:     model.StageNone.String(),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, run *model.Run) error {
	summaryJSON, reportJSON, err := marshalRunResult(run)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, stage = ?, summary = ?, report = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(run.Status), run.Stage, nullableString(summaryJSON), nullableString(reportJSON),
		run.Error, time.Now().UTC(), run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", run.ID)
	}
	return checkRowsAffected(res, "run", run.ID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, stage, summary, report, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, stage, summary, report, error, created_at, updated_at FROM runs
		 ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var summaryJSON, reportJSON sql.NullString

	err := row.Scan(&r.ID, &r.Status, &r.Stage, &summaryJSON, &reportJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if summaryJSON.Valid {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal([]byte(summaryJSON.String), r.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
	}
	if reportJSON.Valid {
		r.Report = &model.Report{}
		if err := json.Unmarshal([]byte(reportJSON.String), r.Report); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal report")
		}
	}
	return &r, nil
}

func marshalRunResult(run *model.Run) ([]byte, []byte, error) {
	var summaryJSON, reportJSON []byte
	var err error
	if run.Summary != nil {
		if summaryJSON, err = json.Marshal(run.Summary); err != nil {
			return nil, nil, eris.Wrap(err, "store: marshal summary")
		}
	}
	if run.Report != nil {
		if reportJSON, err = json.Marshal(run.Report); err != nil {
			return nil, nil, eris.Wrap(err, "store: marshal report")
		}
	}
	return summaryJSON, reportJSON, nil
}

func nullableString(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

// parseSQLiteTime handles the text forms MAX() returns for DATETIME columns.
func parseSQLiteTime(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999 -0700 MST",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
