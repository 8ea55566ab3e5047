package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// pragmas applied to every connection.
const pragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// DB is the catalog and saved-plan database.
type DB struct {
	*sql.DB
}

// Open connects to the SQLite file at path, or to a private in-memory
// database when path is ":memory:".
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?"+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if path == memoryPath {
		// a second connection would see an empty database
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	return &DB{DB: sqlDB}, nil
}

// OpenAndInit opens path, creating its directory if needed, and applies the
// schema.
func OpenAndInit(ctx context.Context, path string) (*DB, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	database, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := InitSchema(ctx, database.DB); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return database, nil
}

// InTransaction runs fn in a transaction, committing only when fn succeeds.
func (db *DB) InTransaction(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetSyncMetadata returns the import bookkeeping value stored under key, or
// "" when nothing was recorded.
func (db *DB) GetSyncMetadata(ctx context.Context, key string) (string, error) {
	var value string
	row := db.QueryRowContext(ctx, `SELECT value FROM sync_metadata WHERE key = ?`, key)
	switch err := row.Scan(&value); {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("read sync metadata %q: %w", key, err)
	}
	return value, nil
}

// SetSyncMetadata records an import bookkeeping value.
func (db *DB) SetSyncMetadata(ctx context.Context, key, value string) error {
	const upsert = `
		INSERT INTO sync_metadata (key, value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := db.ExecContext(ctx, upsert, key, value); err != nil {
		return fmt.Errorf("write sync metadata %q: %w", key, err)
	}
	return nil
}
