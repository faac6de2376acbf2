package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/skillsenselab/docflow/errors"
)

// ErrBlobNotFound is returned when no blob exists for a key.
var ErrBlobNotFound = stderrors.New("store: blob not found")

// BlobStore is content-addressable storage for large artifacts
// (documents, rendered transformations). Put records the caller's name
// for the content and returns the key it is retrievable under.
type BlobStore interface {
	Put(ctx context.Context, content []byte, name string) (key string, err error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// LocalBlobStore stores blobs on the local filesystem, sharded by the
// first two hex characters of the content hash.
type LocalBlobStore struct {
	basePath string
}

// NewLocalBlobStore creates a filesystem blob store rooted at basePath.
func NewLocalBlobStore(basePath string) (*LocalBlobStore, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, errors.FileSystem("resolve", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, errors.FileSystem("mkdir", err)
	}
	return &LocalBlobStore{basePath: abs}, nil
}

// Put stores content under its SHA-256 hex digest and records name as
// sidecar metadata. Storing the same content twice is idempotent and
// returns the same key; the name from the latest Put wins.
func (s *LocalBlobStore) Put(_ context.Context, content []byte, name string) (string, error) {
	sum := sha256.Sum256(content)
	key := hex.EncodeToString(sum[:])

	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", errors.FileSystem("mkdir", err)
	}
	if name != "" {
		if err := os.WriteFile(path+".name", []byte(name), 0o640); err != nil {
			return "", errors.FileSystem("write", err)
		}
	}
	if _, err := os.Stat(path); err == nil {
		return key, nil
	}

	// Write to a temp file then rename so readers never observe a
	// partially written blob.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".blob-*")
	if err != nil {
		return "", errors.FileSystem("create", err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", errors.FileSystem("write", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", errors.FileSystem("close", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", errors.FileSystem("rename", err)
	}
	return key, nil
}

// Get returns the content stored under key.
func (s *LocalBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, errors.FileSystem("read", err)
	}
	return data, nil
}

// Name returns the name recorded for a stored blob, or "" when the
// blob was stored without one.
func (s *LocalBlobStore) Name(_ context.Context, key string) (string, error) {
	data, err := os.ReadFile(s.path(key) + ".name")
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.FileSystem("read", err)
	}
	return string(data), nil
}

// Delete removes the blob stored under key along with its recorded
// name. Deleting an absent key is not an error.
func (s *LocalBlobStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.FileSystem("delete", err)
	}
	if err := os.Remove(s.path(key) + ".name"); err != nil && !os.IsNotExist(err) {
		return errors.FileSystem("delete", err)
	}
	return nil
}

func (s *LocalBlobStore) path(key string) string {
	shard := "00"
	if len(key) >= 2 {
		shard = key[:2]
	}
	return filepath.Join(s.basePath, shard, key)
}
