package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// BlobStore is an opaque key->bytes store for uploaded files.
type BlobStore interface {
	Put(path string, data []byte) (string, error)
	Delete(path string) error
	Exists(path string) (bool, error)
	PublicURL(path string) string
}

// FileBlobStore stores blobs on an afero filesystem. Production uses an OS
// filesystem rooted at the storage directory; tests use afero.NewMemMapFs.
type FileBlobStore struct {
	fs      afero.Fs
	baseURL string
}

// NewFileBlobStore creates a FileBlobStore on the given filesystem. baseURL is
// the public base from which stored paths are served.
func NewFileBlobStore(fs afero.Fs, baseURL string) *FileBlobStore {
	return &FileBlobStore{
		fs:      fs,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Put writes data under path, creating parent directories as needed, and
// returns the stored path.
func (s *FileBlobStore) Put(path string, data []byte) (string, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob %s: %w", path, err)
	}
	return path, nil
}

// Delete removes the blob at path. Deleting a missing blob is not an error.
func (s *FileBlobStore) Delete(path string) error {
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", path, err)
	}
	return nil
}

// Exists reports whether a blob is stored at path.
func (s *FileBlobStore) Exists(path string) (bool, error) {
	ok, err := afero.Exists(s.fs, path)
	if err != nil {
		return false, fmt.Errorf("failed to stat blob %s: %w", path, err)
	}
	return ok, nil
}

// PublicURL returns the URL under which the blob at path is served.
func (s *FileBlobStore) PublicURL(path string) string {
	return s.baseURL + "/storage/" + path
}
