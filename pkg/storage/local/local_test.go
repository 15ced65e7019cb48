package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luzifer/mediacache/pkg/storage"
)

const testPath = "images/ab/abcdef"

func TestStoreAndGetRoundTrip(t *testing.T) {
	var (
		ctx  = context.Background()
		dir  = t.TempDir()
		s    = New(dir)
		data = []byte{0x89, 'P', 'N', 'G', 0x00, 0xff, '\n'}
	)

	require.NoError(t, s.StoreFile(ctx, testPath, data))

	got, err := s.GetFile(ctx, testPath)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	raw, err := os.ReadFile(filepath.Join(dir, "images", "ab", "abcdef"))
	require.NoError(t, err)
	assert.Equal(t, data, raw, "file must contain the raw bytes without wrapper")
}

func TestStoreIsIdempotent(t *testing.T) {
	var (
		ctx  = context.Background()
		dir  = t.TempDir()
		s    = New(dir)
		data = []byte("same content")
	)

	require.NoError(t, s.StoreFile(ctx, testPath, data))
	require.NoError(t, s.StoreFile(ctx, testPath, data))

	got, err := s.GetFile(ctx, testPath)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	entries, err := os.ReadDir(filepath.Join(dir, "images", "ab"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary files may be left behind")
	assert.Equal(t, "abcdef", entries[0].Name())
}

func TestStoreEmptyData(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())

	require.NoError(t, s.StoreFile(ctx, testPath, nil))

	got, err := s.GetFile(ctx, testPath)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetMissing(t *testing.T) {
	s := New(t.TempDir())

	_, err := s.GetFile(context.Background(), "others/00/00ff")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileExists(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())

	ok, err := s.FileExists(ctx, testPath)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.StoreFile(ctx, testPath, []byte("x")))

	ok, err = s.FileExists(ctx, testPath)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.FileExists(ctx, "images/ab")
	require.NoError(t, err)
	assert.False(t, ok, "directories are not cache entries")
}

func TestStoreFailsOnBlockedDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "images"), []byte("not a dir"), 0o600))

	err := New(dir).StoreFile(context.Background(), testPath, []byte("x"))
	assert.Error(t, err)
}
