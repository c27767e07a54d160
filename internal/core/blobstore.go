package core

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BlobStore persists original upload bytes on the filesystem. It is
// content-oblivious: files are stored and retrieved by path only, under
// <base>/<year>/<month>/<token>.<ext>.
type BlobStore struct {
	base string
}

// NewBlobStore creates a store rooted at base, creating the directory
// if needed.
func NewBlobStore(base string) (*BlobStore, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("blob store: create base dir: %w", err)
	}
	return &BlobStore{base: base}, nil
}

// Store writes data under a generated collision-free path and returns it.
// The token is random, so two uploads of identical bytes get distinct paths.
func (b *BlobStore) Store(data []byte, originalName string) (string, error) {
	now := time.Now()
	dir := filepath.Join(b.base,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", int(now.Month())),
	)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("blob store: create dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".xlsx"
	}
	path := filepath.Join(dir, uuid.New().String()+ext)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("blob store: write file: %w", err)
	}
	return path, nil
}

// Open returns a reader over a stored blob. The caller closes it.
func (b *BlobStore) Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("blob store: open: %w", err)
	}
	return f, nil
}

// Delete removes a stored blob. It is idempotent: a missing file logs a
// warning and returns nil. Empty year/month parents are cleaned up on a
// best-effort basis.
func (b *BlobStore) Delete(path string) error {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("blob already gone", "path", path)
			return nil
		}
		return fmt.Errorf("blob store: delete: %w", err)
	}

	// os.Remove refuses non-empty directories, so this only collapses
	// month/year dirs once their last blob is gone.
	monthDir := filepath.Dir(path)
	yearDir := filepath.Dir(monthDir)
	_ = os.Remove(monthDir)
	_ = os.Remove(yearDir)

	return nil
}

// Exists reports whether a blob is present at path.
func (b *BlobStore) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Size returns the byte size of a stored blob.
func (b *BlobStore) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("blob store: stat: %w", err)
	}
	return info.Size(), nil
}
