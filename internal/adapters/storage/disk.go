// Package storage provides the key/value slot stores behind ports.KeyValueStore.
package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/peterbourgon/diskv/v3"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

// DefaultCacheSize is the diskv read cache size in bytes.
const DefaultCacheSize = 1024 * 1024

// Disk stores each slot as one file under a base directory.
type Disk struct {
	d        *diskv.Diskv
	basePath string
}

// NewDisk creates a disk store rooted at basePath, creating the directory if needed.
func NewDisk(basePath string, cacheSize uint64) (*Disk, error) {
	if err := os.MkdirAll(basePath, 0o700); err != nil {
		return nil, domain.NewStorageError("open", basePath, err)
	}

	if cacheSize == 0 {
		cacheSize = DefaultCacheSize
	}

	return &Disk{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			TempDir:      filepath.Join(basePath, ".tmp"),
			Transform:    flatTransform,
			CacheSizeMax: cacheSize,
		}),
		basePath: basePath,
	}, nil
}

// flatTransform keeps every slot directly under the base path.
func flatTransform(string) []string { return []string{} }

// Get implements ports.KeyValueStore.
func (s *Disk) Get(_ context.Context, key string) ([]byte, error) {
	val, err := s.d.Read(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewNotFoundError("slot", key)
		}

		return nil, domain.NewStorageError("read", key, err)
	}

	return val, nil
}

// Set implements ports.KeyValueStore.
func (s *Disk) Set(_ context.Context, key string, value []byte) error {
	if err := s.d.Write(key, value); err != nil {
		return domain.NewStorageError("write", key, err)
	}

	return nil
}

// Name implements ports.HealthChecker.
func (s *Disk) Name() string { return "storage" }

// Check implements ports.HealthChecker by verifying the base directory is reachable.
func (s *Disk) Check(_ context.Context) error {
	info, err := os.Stat(s.basePath)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return domain.NewStorageError("stat", s.basePath, errors.New("not a directory"))
	}

	return nil
}

// Close implements io.Closer.
func (s *Disk) Close() error { return nil }
