// Package storage persists page snapshots on the local filesystem or in S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound is returned when a key has no stored object
var ErrNotFound = errors.New("object not found")

// Store saves and retrieves objects by key. Keys always use forward slashes.
type Store interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	Read(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// SnapshotKey returns the dated key for an HTML snapshot: snapshots/YYYY/MM/<slug>.html
func SnapshotKey(slug string, now time.Time) string {
	return path.Join("snapshots", fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())), slug+".html")
}

// Config contains filesystem storage configuration
type Config struct {
	BasePath string // Base directory for all stored files
}

// DefaultConfig returns default storage configuration
func DefaultConfig() Config {
	return Config{
		BasePath: "./storage",
	}
}

// FileStore handles filesystem storage operations
type FileStore struct {
	config Config
}

// New creates a new FileStore, creating the base directory if needed
func New(config Config) (*FileStore, error) {
	if config.BasePath == "" {
		config.BasePath = DefaultConfig().BasePath
	}
	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory: %w", err)
	}

	return &FileStore{config: config}, nil
}

// Save writes data under key, replacing any existing file
func (s *FileStore) Save(ctx context.Context, key string, data []byte, contentType string) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Read returns the stored bytes for key
func (s *FileStore) Read(ctx context.Context, key string) ([]byte, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return data, nil
}

// Delete removes key. Deleting a missing file is not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// GetFullPath returns the full filesystem path for a key
func (s *FileStore) GetFullPath(key string) string {
	return filepath.Join(s.config.BasePath, filepath.FromSlash(key))
}

// resolve maps a key to a path inside the base directory
func (s *FileStore) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("storage key is required")
	}

	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key: %s", key)
	}

	return filepath.Join(s.config.BasePath, clean), nil
}
