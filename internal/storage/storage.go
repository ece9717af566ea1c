// Package storage keeps named snapshot objects on the local filesystem or in
// Azure Blob Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/triumph-atlantic/matrix-api/internal/config"
	"go.uber.org/zap"
)

// ErrNotFound is returned by Get when the object does not exist
var ErrNotFound = errors.New("object not found")

// ErrInvalidName is returned for empty or escaping object names
var ErrInvalidName = errors.New("invalid object name")

// Storage defines the snapshot object operations. Objects are addressed by a
// slash-separated name such as "snapshots/2024-05-01.json".
type Storage interface {
	Put(ctx context.Context, name string, contentType string, data io.Reader) (int64, error)
	Get(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

// NewStorage creates a new storage instance based on configuration.
// For local mode, objects are stored on the local filesystem.
// For cloud/azure mode, objects are stored in Azure Blob Storage.
func NewStorage(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Mode {
	case "local", "":
		return NewLocalStorage(cfg.LocalBasePath)
	case "cloud", "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("cloud connection string required for azure storage")
		}
		return NewAzureBlobStorage(ctx, cfg.CloudConnectionString, cfg.CloudContainer, logger)
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.Mode)
	}
}

// cleanName normalizes an object name and rejects names that would leave the
// storage root
func cleanName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return "", ErrInvalidName
	}
	cleaned := path.Clean("/" + name)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return cleaned, nil
}

// LocalStorage implements Storage for the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

func (s *LocalStorage) fullPath(name string) (string, error) {
	cleaned, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(cleaned)), nil
}

// Put writes an object, replacing any existing one. The content type is not
// kept on disk.
func (s *LocalStorage) Put(ctx context.Context, name string, contentType string, data io.Reader) (int64, error) {
	fullPath, err := s.fullPath(name)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	// Written next to the target and renamed, so readers never see half a snapshot
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".put-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	size, err := io.Copy(tmp, data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to store file: %w", err)
	}

	return size, nil
}

// Get opens an object for reading
func (s *LocalStorage) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	fullPath, err := s.fullPath(name)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes an object. Missing objects are not an error.
func (s *LocalStorage) Delete(ctx context.Context, name string) error {
	fullPath, err := s.fullPath(name)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}
