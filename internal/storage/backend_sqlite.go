package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

type sqliteBackend struct {
	db     *sql.DB
	closed atomic.Bool
}

// NewSQLiteBackend stores documents in a key/value table.
func NewSQLiteBackend(dbPath string) (Backend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS guild_documents (
			guild_id TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if b.closed.Load() {
		return nil, false, ErrClosed
	}
	var doc string
	err := b.db.QueryRowContext(ctx,
		`SELECT document FROM guild_documents WHERE guild_id = ?`, key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query document: %w", err)
	}
	return []byte(doc), true, nil
}

func (b *sqliteBackend) Set(ctx context.Context, key string, value []byte) error {
	if b.closed.Load() {
		return ErrClosed
	}
	_, err := b.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO guild_documents (guild_id, document, updated_at)
		VALUES (?, ?, ?)
	`, key, string(value), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Delete(ctx context.Context, key string) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if _, err := b.db.ExecContext(ctx, `DELETE FROM guild_documents WHERE guild_id = ?`, key); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.db.Close()
}
