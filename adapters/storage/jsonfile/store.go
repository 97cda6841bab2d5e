// Package jsonfile persists JSON documents as plain files.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/satriahrh/cocoa-fruit/assistant/domain"
)

// Store reads and writes one JSON document of type T at path. Writes go to a
// temporary file that is renamed over the target.
type Store[T any] struct {
	mu   sync.Mutex
	path string
	perm os.FileMode
}

// New returns a store for path. perm applies to the document file; parent
// directories are created 0o755.
func New[T any](path string, perm os.FileMode) *Store[T] {
	if perm == 0 {
		perm = 0o644
	}
	return &Store[T]{path: path, perm: perm}
}

func (s *Store[T]) Path() string { return s.path }

// Load returns the stored document. A missing file yields the zero value.
func (s *Store[T]) Load() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc T
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read %s: %w", s.path, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *Store[T]) Save(doc T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, s.perm); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Remove deletes the document; a missing file is not an error.
func (s *Store[T]) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", s.path, err)
	}
	return nil
}

// HistoryStore adapts a Store to domain.HistoryStore.
type HistoryStore struct {
	*Store[domain.HistoryDocument]
}

func NewHistoryStore(path string) HistoryStore {
	return HistoryStore{New[domain.HistoryDocument](path, 0o644)}
}

func (h HistoryStore) LoadHistory(context.Context) (domain.HistoryDocument, error) {
	return h.Load()
}

func (h HistoryStore) SaveHistory(_ context.Context, doc domain.HistoryDocument) error {
	return h.Save(doc)
}
