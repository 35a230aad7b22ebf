package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/callbridge/callbridge/core"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists dispatch history to a local SQLite database so it
// survives engine restarts. Writes prune the table down to keepRecent rows.
type SQLiteStore struct {
	db         *sql.DB
	keepRecent int
}

// NewSQLiteStore opens (creating if necessary) the database at dbPath and
// ensures the schema exists. keepRecent <= 0 defaults to 1000.
func NewSQLiteStore(dbPath string, keepRecent int) (*SQLiteStore, error) {
	path := filepath.Clean(dbPath)
	if path == "" || path == "." {
		return nil, fmt.Errorf("invalid sqlite db path")
	}
	if keepRecent <= 0 {
		keepRecent = 1000
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir failed: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite failed: %w", err)
	}

	store := &SQLiteStore{db: db, keepRecent: keepRecent}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS call_history (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	call_id TEXT NOT NULL,
	operation TEXT NOT NULL,
	accepted INTEGER NOT NULL,
	code TEXT NOT NULL,
	reason TEXT NOT NULL,
	duration_us INTEGER NOT NULL,
	at_unix_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_call_history_at ON call_history(at_unix_ms);`

	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("init sqlite schema failed: %w", err)
	}
	return nil
}

// Append inserts one entry and prunes rows beyond the retention window.
func (s *SQLiteStore) Append(e Entry) error {
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO call_history (call_id, operation, accepted, code, reason, duration_us, at_unix_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.CallID, e.Operation, boolToInt(e.Accepted), string(e.Code), e.Reason,
		e.Duration.Microseconds(), e.At.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert history entry failed: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM call_history WHERE seq NOT IN (
			SELECT seq FROM call_history ORDER BY seq DESC LIMIT ?
		)`, s.keepRecent)
	if err != nil {
		return fmt.Errorf("prune history failed: %w", err)
	}

	return nil
}

// Recent returns up to n entries, most recent first.
func (s *SQLiteStore) Recent(n int) ([]Entry, error) {
	if n <= 0 {
		n = s.keepRecent
	}

	rows, err := s.db.QueryContext(context.Background(),
		`SELECT call_id, operation, accepted, code, reason, duration_us, at_unix_ms
		 FROM call_history ORDER BY seq DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query history failed: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			accepted   int
			code       string
			durationUS int64
			atUnixMS   int64
		)
		if err := rows.Scan(&e.CallID, &e.Operation, &accepted, &code, &e.Reason, &durationUS, &atUnixMS); err != nil {
			return nil, fmt.Errorf("scan history row failed: %w", err)
		}
		e.Accepted = accepted != 0
		e.Code = core.RejectCode(code)
		e.Duration = time.Duration(durationUS) * time.Microsecond
		e.At = time.UnixMilli(atUnixMS).UTC()
		out = append(out, e)
	}

	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
