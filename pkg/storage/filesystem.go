package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

const storeFile = "store.json"

// FileKV persists all keys in one JSON document under a base directory.
// Writes go to a temp file followed by a rename, so a crash leaves either the
// old or the new document on disk.
type FileKV struct {
	path   string
	logger *zap.Logger

	mu     sync.Mutex
	values map[string]string
}

// NewFileKV ensures the base directory exists and loads the current document.
// An unreadable or corrupt document starts an empty store instead of failing.
func NewFileKV(baseDir string, logger *zap.Logger) (*FileKV, error) {
	if baseDir == "" {
		baseDir = "./.sma-admin"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	kv := &FileKV{
		path:   filepath.Join(baseDir, storeFile),
		logger: logger,
		values: make(map[string]string),
	}
	kv.load()
	return kv, nil
}

func (f *FileKV) load() {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.Warn("storage document unreadable, starting empty", zap.String("path", f.path), zap.Error(err))
		}
		return
	}
	values := make(map[string]string)
	if err := json.Unmarshal(raw, &values); err != nil {
		f.logger.Warn("storage document corrupt, starting empty", zap.String("path", f.path), zap.Error(err))
		return
	}
	f.values = values
}

func (f *FileKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", miss()
	}
	return v, nil
}

func (f *FileKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.values[key]
	f.values[key] = value
	if err := f.flush(); err != nil {
		if had {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

func (f *FileKV) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; !ok {
		return nil
	}
	delete(f.values, key)
	return f.flush()
}

func (f *FileKV) Close() error { return nil }

// Path exposes the underlying document path (useful for debugging).
func (f *FileKV) Path() string {
	return f.path
}

func (f *FileKV) flush() error {
	payload, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal storage document: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("write storage document: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace storage document: %w", err)
	}
	return nil
}
