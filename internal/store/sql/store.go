// Package sqlstore persists users and bookmarks in a SQL database. The
// driver is picked from the connection string: postgres for postgres://,
// libsql for Turso URLs and the embedded SQLite engine otherwise.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver

	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/utils"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectLibSQL
	dialectPostgres
)

func (d dialect) String() string {
	switch d {
	case dialectPostgres:
		return "postgres"
	case dialectLibSQL:
		return "libsql"
	default:
		return "sqlite"
	}
}

// detectDialect maps a DSN to the driver serving it.
func detectDialect(dsn string) dialect {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return dialectPostgres
	case strings.Contains(dsn, "libsql://"), strings.Contains(dsn, "wss://"):
		return dialectLibSQL
	default:
		return dialectSQLite
	}
}

// Store wraps the database connection.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to dsn and applies the schema. The database must answer
// the first ping.
func Open(ctx context.Context, dsn string) (*Store, error) {
	return open(ctx, dsn, func(ctx context.Context, db *sql.DB) error {
		return db.PingContext(ctx)
	})
}

// OpenWithRetry is Open for hosted databases that may still be starting:
// it pings with backoff per policy before applying the schema.
func OpenWithRetry(ctx context.Context, dsn string, policy utils.RetryPolicy, log logger.Logger) (*Store, error) {
	return open(ctx, dsn, func(ctx context.Context, db *sql.DB) error {
		return utils.WaitReady(ctx, "database", utils.RedactDSN(dsn), db.PingContext, policy, log)
	})
}

func open(ctx context.Context, dsn string, ready func(context.Context, *sql.DB) error) (*Store, error) {
	d := detectDialect(dsn)

	db, err := sql.Open(d.String(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d, err)
	}

	switch d {
	case dialectPostgres:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	case dialectSQLite:
		if isMemoryDSN(dsn) {
			// every connection would get its own empty database
			db.SetMaxOpenConns(1)
		}
	}

	if err := ready(ctx, db); err != nil {
		utils.Close(db)
		return nil, fmt.Errorf("ping %s: %w", d, err)
	}

	s := &Store{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		utils.Close(db)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory") || strings.HasPrefix(dsn, "file::memory:")
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver returns the name of the database backend.
func (s *Store) Driver() string {
	return s.dialect.String()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			google_sub TEXT,
			created_at BIGINT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_google_sub ON users(google_sub)`,
		`CREATE TABLE IF NOT EXISTS bookmarks (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookmarks_user_created ON bookmarks(user_id, created_at DESC)`,
	}
	if s.dialect == dialectSQLite {
		stmts = append([]string{`PRAGMA journal_mode=WAL`}, stmts...)
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders into the dialect's form.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Timestamps are stored as unix nanoseconds so ordering is identical on
// every backend.
func toUnix(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
