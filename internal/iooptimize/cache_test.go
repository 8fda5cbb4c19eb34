package iooptimize

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupArchives(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().Add(-48 * time.Hour)

	write := func(name string, mtime time.Time) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("12345"), 0644))
		require.NoError(t, os.Chtimes(path, mtime, mtime))
		return path
	}

	stale := write("archive-1.zip", old)
	fresh := write("archive-2.zip", time.Now())
	other := write("notes.txt", old)

	count, size, err := CleanupArchives(dir, StaleAge)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, int64(5), size)

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.FileExists(t, other, "only downloads are removed")
}

func TestCleanupArchivesEmpty(t *testing.T) {
	count, size, err := CleanupArchives(filepath.Join(t.TempDir(), "none"), StaleAge)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, size)
}
