// Package storage is the blob store for uploaded camera frames.
package storage

import (
	"context"
	"time"
)

// Store defines the blob operations the image pipeline needs.
type Store interface {
	// Save writes the bytes under path and returns nil on success.
	Save(ctx context.Context, path string, data []byte, contentType string) error
	// SignedURL returns a URL for the blob valid for at least expiry.
	SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error)
	// Delete removes the blob. Deleting a missing blob is an error.
	Delete(ctx context.Context, path string) error
	// Exists reports whether the blob is present.
	Exists(ctx context.Context, path string) (bool, error)
}

// Filename returns the stored object name for a new upload. Filenames are
// generated UUIDs with a fixed .png extension regardless of the actual
// encoding; existing dashboards rely on the extension, so it stays.
func Filename(id string) string {
	return id + ".png"
}
