package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Local keeps one JSON file per node instance under a base directory.
type Local struct {
	basePath string
}

// NewLocal returns a store rooted at basePath, creating it if needed.
func NewLocal(basePath string) (*Local, error) {
	if basePath == "" {
		return nil, fmt.Errorf("local store requires a path")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &Local{basePath: basePath}, nil
}

// Load implements Store.
func (l *Local) Load(_ context.Context, key string) (map[string]any, error) {
	data, err := os.ReadFile(l.fullPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", l.fullPath(key), err)
	}
	return decode(data)
}

// Save implements Store. The file is replaced atomically.
func (l *Local) Save(_ context.Context, key string, props map[string]any) error {
	data, err := encode(props)
	if err != nil {
		return err
	}

	fullPath := l.fullPath(key)
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".instancectl-state-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write state: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Delete implements Store. Deleting a missing key succeeds.
func (l *Local) Delete(_ context.Context, key string) error {
	if err := os.Remove(l.fullPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", l.fullPath(key), err)
	}
	return nil
}

func (l *Local) fullPath(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(key))
}
