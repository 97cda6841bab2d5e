// Package sqlite keeps JSON documents in a single SQLite table.
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

	"github.com/satriahrh/cocoa-fruit/assistant/domain"
	_ "modernc.org/sqlite"
)

const historyDocument = "weather_history"

type DocumentStore struct {
	db *sql.DB
}

// Open creates the database at path if needed. Use ":memory:" for tests.
func Open(path string) (*DocumentStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A ":memory:" database lives only as long as its connection.
	db.SetMaxOpenConns(1)

	s := &DocumentStore{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *DocumentStore) initialize() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS documents (
		name TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	return nil
}

func (s *DocumentStore) Close() error {
	return s.db.Close()
}

// Get decodes document name into v. found is false when it does not exist.
func (s *DocumentStore) Get(ctx context.Context, name string, v any) (found bool, err error) {
	var body string
	err = s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading document %s: %w", name, err)
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return false, fmt.Errorf("decoding document %s: %w", name, err)
	}
	return true, nil
}

func (s *DocumentStore) Put(ctx context.Context, name string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding document %s: %w", name, err)
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		name, string(body), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing document %s: %w", name, err)
	}
	return nil
}

func (s *DocumentStore) LoadHistory(ctx context.Context) (domain.HistoryDocument, error) {
	var doc domain.HistoryDocument
	_, err := s.Get(ctx, historyDocument, &doc)
	return doc, err
}

func (s *DocumentStore) SaveHistory(ctx context.Context, doc domain.HistoryDocument) error {
	return s.Put(ctx, historyDocument, doc)
}
