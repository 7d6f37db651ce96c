package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hemolink/hemolink/internal/pkg/crypto"
)

// FilesystemBackend stores document files on the local filesystem under
// a sharded directory layout.
type FilesystemBackend struct {
	config PathConfig
}

var _ Backend = (*FilesystemBackend)(nil)

// NewFilesystemBackend creates a filesystem backend rooted at basePath.
// The root directory is created if it does not exist.
func NewFilesystemBackend(basePath string) (*FilesystemBackend, error) {
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	return &FilesystemBackend{config: DefaultPathConfig(basePath)}, nil
}

// Store writes content to a temporary file while hashing it, then moves
// the file into its content-addressed location. An existing file with
// the same hash is left untouched.
func (b *FilesystemBackend) Store(ctx context.Context, reader io.Reader, size int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(b.config.BasePath, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	hashReader := crypto.NewHashReader(reader)
	written, err := io.Copy(tmp, hashReader)
	if err != nil {
		return "", fmt.Errorf("writing content: %w", err)
	}
	if size > 0 && written != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, wrote %d", size, written)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	contentHash := hashReader.SHA256()
	finalPath := ComputePath(b.config, contentHash)

	// Already stored: dedup by content hash
	if _, err := os.Stat(finalPath); err == nil {
		return contentHash, nil
	}

	if err := os.MkdirAll(filepath.Dir(finalPath), 0o750); err != nil {
		return "", fmt.Errorf("creating shard directory: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("moving content into place: %w", err)
	}
	return contentHash, nil
}

// Retrieve returns a stream of the content with the given hash.
func (b *FilesystemBackend) Retrieve(ctx context.Context, contentHash string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(ComputePath(b.config, contentHash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("opening content: %w", err)
	}
	return f, nil
}

// Delete removes content by its hash.
func (b *FilesystemBackend) Delete(ctx context.Context, contentHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(ComputePath(b.config, contentHash)); err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return fmt.Errorf("removing content: %w", err)
	}
	return nil
}

// Exists checks whether content with the given hash exists.
func (b *FilesystemBackend) Exists(ctx context.Context, contentHash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(ComputePath(b.config, contentHash))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetSize returns the size in bytes of stored content.
func (b *FilesystemBackend) GetSize(ctx context.Context, contentHash string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	info, err := os.Stat(ComputePath(b.config, contentHash))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrFileNotFound
		}
		return 0, err
	}
	return info.Size(), nil
}

// GetPath returns the filesystem path for a content hash.
func (b *FilesystemBackend) GetPath(contentHash string) string {
	return ComputePath(b.config, contentHash)
}
