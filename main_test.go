package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luzifer/mediacache/pkg/storage/local"
)

func TestGetStorageLocal(t *testing.T) {
	dir := t.TempDir()

	s, err := getStorage(dir)
	require.NoError(t, err)
	assert.Equal(t, local.New(dir), s)
}
