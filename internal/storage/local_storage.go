package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/viznest/viznest-backend/pkg/logger"
)

// LocalStorage writes uploads under a directory served by the router at publicURL
type LocalStorage struct {
	root      string
	publicURL string
}

func NewLocalStorage(root, publicURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStorage{root: root, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (s *LocalStorage) Root() string {
	return s.root
}

func (s *LocalStorage) path(key string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", ErrNotFound
	}
	return full, nil
}

func (s *LocalStorage) Save(ctx context.Context, folder, filename, contentType string, body io.Reader, size int64) (*StoredFile, error) {
	key := NewKey(folder, filename)
	full, err := s.path(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}

	f, err := os.Create(full)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		logger.Error("Failed to write upload to disk", err, map[string]interface{}{
			"key": key,
		})
		_ = os.Remove(full)
		return nil, err
	}

	logger.Debug("Upload written to disk", map[string]interface{}{
		"key":  key,
		"size": size,
	})
	return &StoredFile{Key: key, URL: s.publicURL + "/" + key}, nil
}

func (s *LocalStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	full, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

func (s *LocalStorage) KeyFromURL(url string) (string, bool) {
	prefix := s.publicURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func (s *LocalStorage) Presign(ctx context.Context, folder, filename, contentType string) (*PresignedURLResponse, error) {
	return nil, ErrPresignUnsupported
}
