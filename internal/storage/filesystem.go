package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FilesystemStore is a Store backed by a local directory, with public URLs
// built from a fixed base. Suitable for single-node deployments; swap for an
// object-store client behind the same interface when scaling out.
type FilesystemStore struct {
	root    string
	baseURL string
}

// NewFilesystemStore returns a store rooted at dir, serving URLs under baseURL.
// The directory is created if missing.
func NewFilesystemStore(dir, baseURL string) (*FilesystemStore, error) {
	if dir == "" {
		return nil, errors.New("storage: dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &FilesystemStore{root: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Save writes the bytes under path inside the store root.
func (s *FilesystemStore) Save(ctx context.Context, path string, data []byte, contentType string) error {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

// SignedURL returns the public URL for the blob. Filesystem blobs are served
// statically, so the URL does not expire; expiry is accepted for interface
// compatibility with object-store backends.
func (s *FilesystemStore) SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	return s.baseURL + "/" + strings.TrimPrefix(path, "/"), nil
}

// Delete removes the blob. Deleting a missing blob returns an error.
func (s *FilesystemStore) Delete(ctx context.Context, path string) error {
	return os.Remove(filepath.Join(s.root, filepath.FromSlash(path)))
}

// Exists reports whether the blob is present.
func (s *FilesystemStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(path)))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

var _ Store = (*FilesystemStore)(nil)
