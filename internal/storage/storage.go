// Package storage holds generated image blobs behind a narrow
// interface so object storage stays an external concern.
package storage

import (
	"context"
	"os"
	"path/filepath"
)

// BlobStore persists raw image bytes and returns a URL the record can
// reference.
type BlobStore interface {
	Save(ctx context.Context, name string, data []byte) (url string, err error)
}

// DiskStore writes blobs under a local directory. URLs are BaseURL +
// "/" + name; the server mounts the directory for static serving.
type DiskStore struct {
	Dir     string
	BaseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{Dir: dir, BaseURL: baseURL}, nil
}

func (s *DiskStore) Save(_ context.Context, name string, data []byte) (string, error) {
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o644); err != nil {
		return "", err
	}
	return s.BaseURL + "/" + name, nil
}
