package kv

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - kv table
const currentSchemaVersion = 1

// SQLite is a durable Store backed by a single SQLite database.
//
// The connection pool is limited to one connection: SQLite supports one
// writer at a time, and a single connection also makes Commit's
// read-compare-write sequence atomic without SQLITE_BUSY churn.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - immediate transactions, so Commit takes the write lock at BEGIN
//
// This function is idempotent; reopening an existing database is safe.
func OpenSQLite(path string) (*SQLite, error) {
	// Immediate transactions: without this, Commit's read-then-write lock
	// upgrade can fail with SQLITE_BUSY_SNAPSHOT when another process writes
	// the same file. Taking the write lock at BEGIN serializes writers, and
	// a lost race surfaces as a failed precondition instead of an error.
	db, err := sql.Open("sqlite3", path+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Single writer to avoid SQLITE_BUSY errors.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the value stored under key, or ErrKeyNotFound.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key unconditionally (last write wins).
func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// SetIfAbsent stores value under key only if the key has no value.
// Uses ON CONFLICT(key) DO NOTHING; RowsAffected distinguishes a landed
// write from a lost race.
func (s *SQLite) SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO NOTHING
	`, key, value)
	if err != nil {
		return false, fmt.Errorf("set if absent %q: %w", key, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set if absent %q: rows affected: %w", key, err)
	}
	return affected > 0, nil
}

// Delete removes key. Absent keys are a no-op.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Commit applies tx inside one database transaction: read the compare key,
// check byte equality, upsert the put key, read the companion key. A failed
// precondition rolls back with no effects.
func (s *SQLite) Commit(ctx context.Context, tx Tx) (TxResult, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TxResult{}, fmt.Errorf("commit: begin tx: %w", err)
	}
	defer dbTx.Rollback() // No-op if committed

	var current []byte
	err = dbTx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, tx.CompareKey).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return TxResult{Committed: false}, nil
	}
	if err != nil {
		return TxResult{}, fmt.Errorf("commit: read compare key: %w", err)
	}
	if !bytes.Equal(current, tx.CompareValue) {
		return TxResult{Committed: false}, nil
	}

	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, tx.PutKey, tx.PutValue)
	if err != nil {
		return TxResult{}, fmt.Errorf("commit: put: %w", err)
	}

	var read []byte
	if tx.ReadKey != "" {
		err = dbTx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, tx.ReadKey).Scan(&read)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return TxResult{}, fmt.Errorf("commit: companion read: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return TxResult{}, fmt.Errorf("commit: %w", err)
	}
	return TxResult{Committed: true, ReadValue: read}, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and records the schema
// version. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}
