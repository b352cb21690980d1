package resources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeAll writes a backing file for every known resource ID.
func writeAll(t *testing.T, dir string) {
	t.Helper()
	for _, id := range IDs() {
		err := os.WriteFile(filepath.Join(dir, FileName(id)), []byte("content of "+string(id)), 0o644)
		require.NoError(t, err)
	}
}

func TestLoad_AllResources(t *testing.T) {
	dir := t.TempDir()
	writeAll(t, dir)

	repo, err := Load(dir)
	require.NoError(t, err)

	for _, id := range IDs() {
		text, err := repo.Get(id)
		require.NoError(t, err)
		assert.Equal(t, "content of "+string(id), text)
	}
}

func TestLoad_MissingFileFailsFast(t *testing.T) {
	dir := t.TempDir()
	writeAll(t, dir)
	require.NoError(t, os.Remove(filepath.Join(dir, FileName(Docs))))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "docs")
}

func TestGet_UnknownID(t *testing.T) {
	dir := t.TempDir()
	writeAll(t, dir)

	repo, err := Load(dir)
	require.NoError(t, err)

	_, err = repo.Get(ID("nonexistent"))
	assert.Error(t, err)
}

func TestIDs_Stable(t *testing.T) {
	assert.Equal(t, IDs(), IDs())
	assert.Len(t, IDs(), 9)
	assert.Contains(t, IDs(), CSVTemplate)
}
