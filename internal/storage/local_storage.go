package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"trailbook/internal/chattypes"
	"trailbook/internal/config"
)

// LocalObjectStore implements chattypes.ObjectStore on the local filesystem.
// In production the same interface fronts an S3-compatible store; the attach
// consumer only ever needs ObjectURL, which is pure string derivation either
// way.
type LocalObjectStore struct {
	basePath string
	baseURL  string
}

// NewLocalObjectStore creates a new LocalObjectStore rooted at the configured
// path.
func NewLocalObjectStore(cfg config.StorageConfig) (chattypes.ObjectStore, error) {
	if err := os.MkdirAll(cfg.LocalPath, 0o755); err != nil {
		return nil, fmt.Errorf("creating local storage directory %q: %w", cfg.LocalPath, err)
	}
	return &LocalObjectStore{
		basePath: cfg.LocalPath,
		baseURL:  cfg.BaseURL,
	}, nil
}

// Upload saves the reader's content under a fresh object key, keeping the
// original extension.
func (s *LocalObjectStore) Upload(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*chattypes.FileInfo, error) {
	ext := filepath.Ext(fileName)
	if ext == "" {
		if extensions, _ := mime.ExtensionsByType(mimeType); len(extensions) > 0 {
			ext = extensions[0]
		}
	}
	key := uuid.New().String() + ext

	dstPath := filepath.Join(s.basePath, key)
	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("creating object file %q: %w", dstPath, err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, reader)
	if err != nil {
		os.Remove(dstPath)
		return nil, fmt.Errorf("writing object: %w", err)
	}
	if fileSize > 0 && written != fileSize {
		os.Remove(dstPath)
		return nil, fmt.Errorf("object size mismatch: expected %d, wrote %d", fileSize, written)
	}

	return &chattypes.FileInfo{
		URL:      s.ObjectURL(key),
		Key:      key,
		Size:     written,
		MimeType: mimeType,
		FileName: fileName,
	}, nil
}

// ObjectURL derives the durable URL for an object key.
func (s *LocalObjectStore) ObjectURL(key string) string {
	return strings.TrimSuffix(s.baseURL, "/") + "/" + url.PathEscape(key)
}
