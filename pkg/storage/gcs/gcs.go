// Package gcs implements a storage backend saving files in GCS
package gcs

import (
	"context"
	"io"
	"net/url"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Luzifer/mediacache/pkg/storage"
)

// Storage implements the storage.Storage interface for GCS storage
type Storage struct {
	bucket string
	client *gcs.Client
	prefix string
}

// New returns a new GCS storage backend for a gs://bucket/prefix URI
func New(bucketURI string) (*Storage, error) {
	bucket, prefix, err := ParseBucketURI(bucketURI)
	if err != nil {
		return nil, err
	}

	client, err := gcs.NewClient(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, "create GCS client")
	}

	return &Storage{
		bucket: bucket,
		client: client,
		prefix: prefix,
	}, nil
}

// ParseBucketURI splits a gs://bucket/prefix URI into bucket name
// and object prefix
func ParseBucketURI(bucketURI string) (bucket, prefix string, err error) {
	uri, err := url.Parse(bucketURI)
	if err != nil {
		return "", "", errors.Wrap(err, "parse GCS bucket URI")
	}

	if uri.Scheme != "gs" || uri.Host == "" {
		return "", "", errors.New("invalid GCS bucket URI")
	}

	return uri.Host, strings.Trim(uri.Path, "/"), nil
}

// FileExists implements the storage.Storage FileExists method
func (s Storage) FileExists(ctx context.Context, cachePath string) (bool, error) {
	_, err := s.object(cachePath).Attrs(ctx)
	switch {
	case err == nil:
		return true, nil

	case errors.Is(err, gcs.ErrObjectNotExist):
		return false, nil

	default:
		return false, errors.Wrap(err, "get object attributes")
	}
}

// GetFile implements the storage.Storage GetFile method
func (s Storage) GetFile(ctx context.Context, cachePath string) ([]byte, error) {
	r, err := s.object(cachePath).NewReader(ctx)
	switch {
	case err == nil:
		// This is fine

	case errors.Is(err, gcs.ErrObjectNotExist):
		return nil, storage.ErrNotFound

	default:
		return nil, errors.Wrap(err, "get object reader")
	}
	defer func() {
		if err := r.Close(); err != nil {
			logrus.WithError(err).Error("closing object reader (leaked fd)")
		}
	}()

	data, err := io.ReadAll(r)
	return data, errors.Wrap(err, "read object")
}

// StoreFile implements the storage.Storage StoreFile method
func (s Storage) StoreFile(ctx context.Context, cachePath string, data []byte) error {
	w := s.object(cachePath).NewWriter(ctx)

	if _, err := w.Write(data); err != nil {
		if cErr := w.Close(); cErr != nil {
			logrus.WithError(cErr).Error("closing object writer")
		}
		return errors.Wrap(err, "upload content")
	}

	return errors.Wrap(w.Close(), "finish upload")
}

func (s Storage) object(cachePath string) *gcs.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(ObjectName(s.prefix, cachePath))
}

// ObjectName joins prefix and cache path into the object name
func ObjectName(prefix, cachePath string) string {
	return strings.TrimLeft(path.Join(prefix, cachePath), "/")
}
