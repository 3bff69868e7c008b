package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o600))
}

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.cfg"))
	touch(t, filepath.Join(root, "a.HCL"))
	touch(t, filepath.Join(root, "nested", "c.cfg"))
	touch(t, filepath.Join(root, "notes.txt"))

	t.Run("walks directories", func(t *testing.T) {
		files, err := FindFilesByExtension(root, ".cfg", ".hcl")
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(root, "a.HCL"),
			filepath.Join(root, "b.cfg"),
			filepath.Join(root, "nested", "c.cfg"),
		}, files)
	})

	t.Run("single extension", func(t *testing.T) {
		files, err := FindFilesByExtension(root, ".hcl")
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(root, "a.HCL")}, files)
	})

	t.Run("file root", func(t *testing.T) {
		path := filepath.Join(root, "notes.txt")
		files, err := FindFilesByExtension(path, ".cfg")
		require.NoError(t, err)
		assert.Equal(t, []string{path}, files)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := FindFilesByExtension(filepath.Join(root, "missing"), ".cfg")
		assert.Error(t, err)
	})

	t.Run("empty extension panics", func(t *testing.T) {
		assert.Panics(t, func() { _, _ = FindFilesByExtension(root, "") })
		assert.Panics(t, func() { _, _ = FindFilesByExtension(root) })
	})
}

func TestHasExtension(t *testing.T) {
	assert.True(t, HasExtension("yolov4.cfg", ".cfg"))
	assert.True(t, HasExtension("NET.Hcl", ".cfg", ".hcl"))
	assert.False(t, HasExtension("yolov4.weights", ".cfg", ".hcl"))
}
