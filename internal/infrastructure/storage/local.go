// internal/infrastructure/storage/local.go
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes objects below a directory that is served at baseURL
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates a local disk store
func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Root returns the directory objects are written to
func (s *LocalStore) Root() string {
	return s.root
}

// Put writes body to root/key
func (s *LocalStore) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	fullPath, err := s.pathFor(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(dst, body); err != nil {
		dst.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return s.baseURL + "/" + filepath.ToSlash(key), nil
}

// Delete removes the object behind url. Unknown objects are ignored.
func (s *LocalStore) Delete(_ context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok {
		return fmt.Errorf("url %q is not served by this store", url)
	}

	fullPath, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStore) pathFor(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}
