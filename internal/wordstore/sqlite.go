package wordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLitePersister stores the JSON encoded collection in a SQLite key/value table
type SQLitePersister struct {
	db  *sql.DB
	key string
}

// OpenSQLite opens (and creates if needed) the database at path.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLitePersister, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and writes serialized
	db.SetMaxOpenConns(1)

	p := &SQLitePersister{db: db, key: StorageKey}
	if err := p.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return p, nil
}

func (p *SQLitePersister) migrate() error {
	_, err := p.db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		mod   INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	)`)
	return err
}

// Load implements Persister
func (p *SQLitePersister) Load(ctx context.Context) ([]Word, error) {
	var raw string
	err := p.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, p.key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.key, err)
	}

	var words []Word
	if err := json.Unmarshal([]byte(raw), &words); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", p.key, err)
	}
	return words, nil
}

// Save implements Persister
func (p *SQLitePersister) Save(ctx context.Context, words []Word) error {
	if words == nil {
		words = []Word{}
	}
	data, err := json.Marshal(words)
	if err != nil {
		return fmt.Errorf("failed to encode words: %w", err)
	}

	_, err = p.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, mod = strftime('%s', 'now')`,
		p.key, string(data))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", p.key, err)
	}
	return nil
}

// Close closes the underlying database
func (p *SQLitePersister) Close() error {
	return p.db.Close()
}
