package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a user, song or playlist row does not exist.
var ErrNotFound = errors.New("not found")

const retryDelay = 300 * time.Millisecond

// Open opens the sqlite store under dataDir, trying up to attempts times
// before giving up. Failing here is the one fatal startup condition.
func Open(ctx context.Context, dataDir string, attempts int) (*sql.DB, error) {
	dbDir := filepath.Join(dataDir, "db")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	dbPath := filepath.Join(dbDir, "tunesync.db")

	database, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if attempts < 1 {
		attempts = 1
	}
	for i := 1; ; i++ {
		err = database.PingContext(ctx)
		if err == nil {
			break
		}
		if i >= attempts {
			database.Close()
			return nil, fmt.Errorf("store unreachable after %d attempts: %w", attempts, err)
		}
		slog.Warn("store unreachable, retrying", "attempt", i, "of", attempts, "error", err)
		select {
		case <-ctx.Done():
			database.Close()
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA cache_size=-20000",
	}
	for _, p := range pragmas {
		if _, err := database.ExecContext(ctx, p); err != nil {
			database.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}

	database.SetMaxOpenConns(1)

	return database, nil
}

// SQLiteTime handles scanning time values from SQLite columns.
// SQLite stores timestamps as TEXT and different drivers may return
// string, time.Time, or int64; this wrapper normalises them all.
type SQLiteTime struct {
	Time time.Time
}

func (st *SQLiteTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		st.Time = time.Time{}
	case string:
		formats := []string{
			"2006-01-02T15:04:05.000Z",
			time.RFC3339,
			"2006-01-02 15:04:05",
		}
		var err error
		for _, f := range formats {
			st.Time, err = time.Parse(f, v)
			if err == nil {
				return nil
			}
		}
		return fmt.Errorf("SQLiteTime: cannot parse %q", v)
	case time.Time:
		st.Time = v
	case int64:
		st.Time = time.Unix(v, 0)
	default:
		return fmt.Errorf("SQLiteTime: unsupported type %T", src)
	}
	return nil
}

// identities are stored bit-for-bit as signed 64-bit integers.
func toInt(v uint64) int64 { return int64(v) }

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const nowExpr = `strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`
