package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/kleisli/pkg/kleisli/internalerr"
	"github.com/cognicore/kleisli/pkg/kleisli/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	// Initialize schema
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	digest TEXT NOT NULL,
	input TEXT NOT NULL,
	note TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_digest ON runs(digest);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

CREATE TABLE IF NOT EXISTS run_tokens (
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	token TEXT NOT NULL,
	PRIMARY KEY(run_id, position),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS stoplist (
	token TEXT PRIMARY KEY
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun inserts or replaces a run and its tokens
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("save run: %w: empty id", internalerr.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO runs (id, digest, input, note, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	digest=excluded.digest,
	input=excluded.input,
	note=excluded.note,
	created_at=excluded.created_at;
`
	_, err = tx.ExecContext(ctx, stmt,
		r.ID,
		r.Digest,
		r.Input,
		r.Note,
		formatTime(r.CreatedAt),
	)
	if err != nil {
		return err
	}

	if err := replaceRunTokens(ctx, tx, r.ID, r.Tokens); err != nil {
		return err
	}

	return tx.Commit()
}

// replaceRunTokens stores tokens by position; empty tokens are kept.
func replaceRunTokens(ctx context.Context, tx *sql.Tx, runID string, tokens []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM run_tokens WHERE run_id=?`, runID); err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_tokens (run_id, position, token) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, tok := range tokens {
		if _, err := stmt.ExecContext(ctx, runID, i, tok); err != nil {
			return err
		}
	}
	return nil
}

// GetRun retrieves a run by ID
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	run, err := s.loadRun(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return run, err
}

// RunsByDigest returns every run recorded for an input digest, newest first
func (s *sqliteStore) RunsByDigest(ctx context.Context, digest string) ([]store.Run, error) {
	ids, err := s.loadStringColumn(ctx, `
SELECT id FROM runs
WHERE digest = ?
ORDER BY created_at DESC, id DESC;
`, digest)
	if err != nil {
		return nil, err
	}
	return s.loadRuns(ctx, ids)
}

// ListRuns returns up to limit runs, newest first
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = store.DefaultListLimit
	}

	ids, err := s.loadStringColumn(ctx, `
SELECT id FROM runs
ORDER BY created_at DESC, id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	return s.loadRuns(ctx, ids)
}

func (s *sqliteStore) loadRuns(ctx context.Context, ids []string) ([]store.Run, error) {
	runs := make([]store.Run, 0, len(ids))
	for _, id := range ids {
		run, err := s.loadRun(ctx, id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// CountRuns returns the number of journaled runs
func (s *sqliteStore) CountRuns(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&total)
	return total, err
}

// Stoplist returns a view over the stored stoplist, or nil when empty.
func (s *sqliteStore) Stoplist(ctx context.Context) (store.StoplistView, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stoplist`).Scan(&count); err != nil {
		return nil, fmt.Errorf("count stoplist: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	return &sqliteStoplistView{db: s.db}, nil
}

// UpsertStoplist replaces the stopword set in a single transaction.
func (s *sqliteStore) UpsertStoplist(ctx context.Context, tokens []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stoplist`); err != nil {
		return err
	}

	if len(tokens) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO stoplist (token) VALUES (?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, tok := range tokens {
			tok = strings.ToLower(strings.TrimSpace(tok))
			if tok == "" {
				continue
			}
			if _, err := stmt.ExecContext(ctx, tok); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// --- SQLite StoplistView ---

type sqliteStoplistView struct{ db *sql.DB }

func (v *sqliteStoplistView) IsStop(ctx context.Context, token string) (bool, error) {
	var count int64
	err := v.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stoplist WHERE token=?`, strings.ToLower(token)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("lookup stopword: %w", err)
	}
	return count > 0, nil
}

func (v *sqliteStoplistView) AllStops(ctx context.Context) ([]string, error) {
	rows, err := v.db.QueryContext(ctx, `SELECT token FROM stoplist ORDER BY token`)
	if err != nil {
		return nil, fmt.Errorf("list stopwords: %w", err)
	}
	defer rows.Close()

	var stops []string
	for rows.Next() {
		var tok string
		if err := rows.Scan(&tok); err != nil {
			return nil, fmt.Errorf("list stopwords: %w", err)
		}
		stops = append(stops, tok)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stopwords: %w", err)
	}
	return stops, nil
}

func (s *sqliteStore) loadRun(ctx context.Context, id string) (store.Run, error) {
	var (
		run     store.Run
		created string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, digest, input, note, created_at
FROM runs
WHERE id = ?;
`, id).Scan(&run.ID, &run.Digest, &run.Input, &run.Note, &created)
	if err != nil {
		return store.Run{}, err
	}

	if created != "" {
		if parsed, perr := time.Parse(time.RFC3339Nano, created); perr == nil {
			run.CreatedAt = parsed
		}
	}

	run.Tokens, err = s.loadStringColumn(ctx, `SELECT token FROM run_tokens WHERE run_id=? ORDER BY position`, id)
	if err != nil {
		return store.Run{}, err
	}
	if run.Tokens == nil {
		run.Tokens = []string{}
	}

	return run, nil
}

func (s *sqliteStore) loadStringColumn(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var val string
		if err := rows.Scan(&val); err != nil {
			return nil, err
		}
		result = append(result, val)
	}
	return result, rows.Err()
}

// formatTime uses a fixed-width layout so that created_at sorts as text.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}
