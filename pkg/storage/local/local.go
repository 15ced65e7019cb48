// Package local implements a storage.Storage backend for local file storage
package local

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/Luzifer/mediacache/pkg/storage"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const storageLocalDirPermission = 0o700

// Storage implements the storage.Storage interface for local file storage
type Storage struct {
	basePath string
}

// New returns a new local file storage
func New(basePath string) Storage { return Storage{basePath} }

// FileExists implements the storage.Storage FileExists method
func (s Storage) FileExists(_ context.Context, cachePath string) (bool, error) {
	info, err := os.Stat(path.Join(s.basePath, cachePath))
	switch {
	case err == nil:
		return !info.IsDir(), nil

	case errors.Is(err, fs.ErrNotExist):
		return false, nil

	default:
		return false, fmt.Errorf("getting cache file stat: %w", err)
	}
}

// GetFile implements the storage.Storage GetFile method
func (s Storage) GetFile(_ context.Context, cachePath string) ([]byte, error) {
	data, err := os.ReadFile(path.Join(s.basePath, cachePath)) //#nosec:G304 // Safe source of variable
	switch {
	case err == nil:
		return data, nil

	case errors.Is(err, fs.ErrNotExist):
		return nil, storage.ErrNotFound

	default:
		return nil, fmt.Errorf("reading cache file: %w", err)
	}
}

// StoreFile implements the storage.Storage StoreFile method. The data
// is written to a temporary file in the target directory and renamed
// into place, concurrent writers of the same path replace each other.
func (s Storage) StoreFile(_ context.Context, cachePath string, data []byte) (err error) {
	cachePath = path.Join(s.basePath, cachePath)

	if err = os.MkdirAll(path.Dir(cachePath), storageLocalDirPermission); err != nil {
		return errors.Wrap(err, "create cache dir")
	}

	f, err := os.CreateTemp(path.Dir(cachePath), ".cache-*")
	if err != nil {
		return errors.Wrap(err, "create temporary cache file")
	}
	tmpPath := f.Name()

	defer func() {
		if err == nil {
			return
		}
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			logrus.WithError(rmErr).WithField("path", tmpPath).Error("removing temporary cache file")
		}
	}()

	if _, err = f.Write(data); err != nil {
		if cErr := f.Close(); cErr != nil {
			logrus.WithError(cErr).Error("closing cache file (leaked fd)")
		}
		return errors.Wrap(err, "write cache file")
	}

	if err = f.Close(); err != nil {
		return errors.Wrap(err, "close cache file")
	}

	return errors.Wrap(os.Rename(tmpPath, cachePath), "move cache file into place")
}
