package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azournas/art-agent/internal/artifacts"
)

func TestAttachmentDest(t *testing.T) {
	root := t.TempDir()
	store, err := artifacts.NewStore(root)
	require.NoError(t, err)

	t.Run("default is the workspace root", func(t *testing.T) {
		dest, err := attachmentDest(store, "")
		require.NoError(t, err)
		assert.Equal(t, store.Root(), dest)
	})

	t.Run("relative destination resolves under the root", func(t *testing.T) {
		dest, err := attachmentDest(store, "downloads")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(store.Root(), "downloads"), dest)
	})

	t.Run("escaping destination is rejected before any write", func(t *testing.T) {
		_, err := attachmentDest(store, "../escape/deep")
		require.Error(t, err)
		var accessErr *artifacts.AccessError
		assert.ErrorAs(t, err, &accessErr)

		_, statErr := os.Stat(filepath.Join(filepath.Dir(root), "escape"))
		assert.True(t, os.IsNotExist(statErr), "rejected destination must not be created")
	})
}
