package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend stores one JSON file per actor in a directory, written
// atomically with owner-only permissions.
type FileBackend struct {
	dir string
	mu  sync.Mutex
}

// NewFileBackend creates the directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		return nil, errors.New("session: file backend directory is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Path returns the file used for actor.
func (b *FileBackend) Path(actor Actor) string {
	return filepath.Join(b.dir, string(actor)+".json")
}

// Load implements Backend.
func (b *FileBackend) Load(_ context.Context, actor Actor) (*Identity, error) {
	raw, err := os.ReadFile(b.Path(actor))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	id, err := decodeIdentity(raw)
	if err != nil {
		return nil, fmt.Errorf("decode session %s: %w", actor, err)
	}
	return id, nil
}

// Save implements Backend.
func (b *FileBackend) Save(_ context.Context, id *Identity) error {
	raw, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return writeAtomic(b.Path(id.Actor), raw)
}

// Delete implements Backend.
func (b *FileBackend) Delete(_ context.Context, actor Actor) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := os.Remove(b.Path(actor)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// writeAtomic writes data to a temp file, fsyncs it, and renames it
// over path. On any error the temp file is cleaned up.
func writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := f.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp to session: %w", err)
	}
	return nil
}

var _ Backend = (*FileBackend)(nil)
