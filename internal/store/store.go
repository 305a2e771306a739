package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite connection and provides access to repositories.
type Store struct {
	db *sqlx.DB
}

// Open connects to the SQLite database at dsn, applies recommended
// pragmas, and runs idempotent migrations.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying sqlx handle for raw queries.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// TrackRepo returns a TrackRepo backed by this store.
func (s *Store) TrackRepo() TrackRepo {
	return &trackRepo{db: s.db}
}

// GraphRepo returns a GraphRepo backed by this store.
func (s *Store) GraphRepo() GraphRepo {
	return &graphRepo{db: s.db}
}

// EventRepo returns an EventRepo backed by this store.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{db: s.db}
}

// applyPragmas configures SQLite for single-learner durability:
// WAL keeps writers from blocking snapshot reads, NORMAL sync is safe
// with WAL and avoids an fsync per transaction.
func applyPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// migrate creates all tables. Statements are idempotent.
func migrate(db *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS track_snapshots (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			topic      TEXT    NOT NULL,
			sequence   INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			data       TEXT    NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_track_snapshots_topic
			ON track_snapshots (topic, sequence)`,
		`CREATE TABLE IF NOT EXISTS graph_artifacts (
			id         TEXT PRIMARY KEY,
			topic      TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			data       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_graph_artifacts_topic
			ON graph_artifacts (topic, created_at)`,
		`CREATE TABLE IF NOT EXISTS llm_events (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at    TIMESTAMP NOT NULL,
			provider      TEXT NOT NULL,
			model         TEXT NOT NULL,
			purpose       TEXT NOT NULL,
			input_tokens  INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			latency_ms    INTEGER NOT NULL DEFAULT 0,
			success       INTEGER NOT NULL,
			error_message TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS assessment_events (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at     TIMESTAMP NOT NULL,
			topic          TEXT NOT NULL,
			node_id        TEXT NOT NULL,
			session_id     TEXT NOT NULL,
			stage          INTEGER NOT NULL,
			raw_score      REAL NOT NULL,
			mastery_before REAL NOT NULL,
			mastery_after  REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_assessment_events_topic
			ON assessment_events (topic, node_id, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. ASTRA_DB environment variable
// 2. $XDG_DATA_HOME/astra/astra.db
// 3. ~/.local/share/astra/astra.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("ASTRA_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "astra", "astra.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
