package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/strata/pkg/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS fixed_values (
	key        TEXT PRIMARY KEY,
	node       TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// Store implements ports.FixedStore on a SQLite database.
type Store struct {
	db   *sql.DB
	Path string
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return setup(db, path)
}

// OpenMemory opens a private in-memory database, mainly for tests.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// every connection would otherwise see its own empty database
	db.SetMaxOpenConns(1)
	return setup(db, ":memory:")
}

func setup(db *sql.DB, path string) (*Store, error) {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, Path: path}, nil
}

// Save upserts the record.
func (s *Store) Save(ctx context.Context, rec ports.Record) error {
	value, err := json.Marshal(rec.Value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO fixed_values (key, node, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET node = excluded.node, value = excluded.value, updated_at = excluded.updated_at`,
		rec.Key, rec.Node, string(value), rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// Load retrieves the record for key.
func (s *Store) Load(ctx context.Context, key string) (ports.Record, error) {
	var (
		rec       ports.Record
		value     string
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT key, node, value, updated_at FROM fixed_values WHERE key = ?`, key,
	).Scan(&rec.Key, &rec.Node, &value, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.Record{}, ports.ErrRecordNotFound
		}
		return ports.Record{}, fmt.Errorf("failed to load record: %w", err)
	}
	if err := json.Unmarshal([]byte(value), &rec.Value); err != nil {
		return ports.Record{}, fmt.Errorf("failed to unmarshal value: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return ports.Record{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return rec, nil
}

// Delete removes the record for key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM fixed_values WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// List returns every stored key in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM fixed_values ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
