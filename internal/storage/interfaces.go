// Package storage defines backends for verification document files.
// Files are stored content-addressed: the SHA-256 hash of the content
// names the file, so identical uploads deduplicate naturally.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrFileNotFound indicates the requested content does not exist.
var ErrFileNotFound = errors.New("file not found in storage")

// IsNotFound reports whether err indicates missing content.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFileNotFound)
}

// Backend defines the interface for document storage backends.
// Implementations include the local filesystem and S3-compatible stores.
type Backend interface {
	// Store stores content from a reader and returns its SHA-256 hash.
	// If content with the same hash already exists, no new file is
	// written.
	Store(ctx context.Context, reader io.Reader, size int64) (contentHash string, err error)

	// Retrieve returns a stream of the content with the given hash.
	// The caller must close the returned ReadCloser.
	// Returns ErrFileNotFound if the content does not exist.
	Retrieve(ctx context.Context, contentHash string) (io.ReadCloser, error)

	// Delete removes content by its hash.
	// Returns ErrFileNotFound if the content does not exist.
	Delete(ctx context.Context, contentHash string) error

	// Exists checks whether content with the given hash exists.
	Exists(ctx context.Context, contentHash string) (bool, error)

	// GetSize returns the size in bytes of stored content.
	// Returns ErrFileNotFound if the content does not exist.
	GetSize(ctx context.Context, contentHash string) (int64, error)

	// GetPath returns the backend-specific location of a content hash.
	// Useful for debugging.
	GetPath(contentHash string) string
}
