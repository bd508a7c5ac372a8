package io

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaFileSystem_WriteFile(t *testing.T) {
	mfs := &MediaFileSystem{}

	t.Run("creates parent directories", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "images", "poster.jpg")

		require.NoError(t, mfs.WriteFile(target, []byte("jpeg")))

		got, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, "jpeg", string(got))

		entries, err := os.ReadDir(filepath.Dir(target))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "temporary file left behind")
	})

	t.Run("existing file", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "poster.jpg")
		require.NoError(t, os.WriteFile(target, []byte("old"), 0o644))

		err := mfs.WriteFile(target, []byte("new"))
		assert.ErrorIs(t, err, ErrFileExists)

		got, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, "old", string(got))
	})
}

func TestMediaFileSystem_FileExists(t *testing.T) {
	mfs := &MediaFileSystem{}
	dir := t.TempDir()

	assert.True(t, mfs.FileExists(dir))
	assert.False(t, mfs.FileExists(filepath.Join(dir, "missing")))
}
