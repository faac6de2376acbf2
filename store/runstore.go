// Package store provides the persistence boundary of the docflow core:
// durable run-state snapshots for status queries and a
// content-addressable blob store for large artifacts.
package store

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/skillsenselab/docflow/errors"
)

// ErrNotFound is returned when no snapshot exists for a run id.
var ErrNotFound = stderrors.New("store: run not found")

// RunStore durably records run-state snapshots for later status queries.
type RunStore interface {
	Save(ctx context.Context, runID string, snapshot []byte) error
	Load(ctx context.Context, runID string) ([]byte, error)
}

// MemoryStore is an in-process RunStore. Useful for tests and
// single-process deployments.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string][]byte
}

// NewMemoryStore creates an empty in-memory run store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string][]byte)}
}

// Save records a snapshot, replacing any previous one for the run.
func (s *MemoryStore) Save(_ context.Context, runID string, snapshot []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[runID] = append([]byte(nil), snapshot...)
	return nil
}

// Load returns the latest snapshot for the run.
func (s *MemoryStore) Load(_ context.Context, runID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.runs[runID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), snapshot...), nil
}

// FileStore is a RunStore backed by one JSON file per run.
type FileStore struct {
	basePath string
}

// NewFileStore creates a file-backed run store rooted at basePath.
func NewFileStore(basePath string) (*FileStore, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, errors.FileSystem("resolve", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, errors.FileSystem("mkdir", err)
	}
	return &FileStore{basePath: abs}, nil
}

// Save writes the snapshot for the run. The write goes through a temp
// file and a rename so a concurrent Load never observes a torn
// snapshot.
func (s *FileStore) Save(_ context.Context, runID string, snapshot []byte) error {
	path := s.path(runID)
	tmp, err := os.CreateTemp(s.basePath, ".snapshot-*")
	if err != nil {
		return errors.FileSystem("create", err)
	}
	if _, err := tmp.Write(snapshot); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.FileSystem("write", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.FileSystem("close", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.FileSystem("rename", err)
	}
	return nil
}

// Load reads the latest snapshot for the run.
func (s *FileStore) Load(_ context.Context, runID string) ([]byte, error) {
	data, err := os.ReadFile(s.path(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.FileSystem("read", err)
	}
	return data, nil
}

func (s *FileStore) path(runID string) string {
	return filepath.Join(s.basePath, filepath.Clean(runID)+".json")
}
