package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite handle holding tasks, the mutation log, the
// dead-letter store and the remote authority's tables. All mutations go
// through single statements; the sync orchestrator is the only writer of
// the sync bookkeeping columns.
type DB struct {
	db     *sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{db: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            description TEXT,
            completed BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            deleted BOOLEAN NOT NULL DEFAULT 0,
            sync_status TEXT NOT NULL DEFAULT 'pending',
            server_id TEXT,
            last_synced_at DATETIME
        )`,

		// Mutation log: pending local changes awaiting synchronization.
		`CREATE TABLE IF NOT EXISTS sync_queue (
            id TEXT PRIMARY KEY,
            task_id TEXT NOT NULL,
            operation TEXT NOT NULL,
            payload TEXT NOT NULL,
            created_at DATETIME NOT NULL,
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT
        )`,

		// Append-only store of mutations that exhausted their retries.
		`CREATE TABLE IF NOT EXISTS dead_letter (
            id TEXT PRIMARY KEY,
            entry_id TEXT NOT NULL,
            task_id TEXT NOT NULL,
            operation TEXT NOT NULL,
            payload TEXT NOT NULL,
            error TEXT NOT NULL,
            retry_count INTEGER NOT NULL,
            failed_at DATETIME NOT NULL
        )`,

		// Server-side tables, used by the remote authority binary.
		`CREATE TABLE IF NOT EXISTS remote_tasks (
            server_id TEXT PRIMARY KEY,
            client_id TEXT UNIQUE NOT NULL,
            title TEXT NOT NULL,
            description TEXT,
            completed BOOLEAN NOT NULL DEFAULT 0,
            deleted BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,

		`CREATE INDEX IF NOT EXISTS idx_tasks_sync_status ON tasks(sync_status)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_deleted ON tasks(deleted)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_created_at ON sync_queue(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_task_id ON sync_queue(task_id)`,
		`CREATE INDEX IF NOT EXISTS idx_dead_letter_failed_at ON dead_letter(failed_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// PingContext reports whether the underlying store is reachable.
func (db *DB) PingContext(ctx context.Context) error {
	return db.db.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.db.Close()
}
