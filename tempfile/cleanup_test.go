package tempfile_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanrat/spillsort/tempfile"
)

// TestRobustCleanup verifies that files are cleaned up properly
// whether or not their content was ever completed.
func TestRobustCleanup(t *testing.T) {
	t.Run("NormalCleanup", func(t *testing.T) {
		dir := t.TempDir()
		f, err := tempfile.New(dir).Provide()
		require.NoError(t, err)

		writeAll(t, f, "test data")
		assert.Equal(t, "test data", readAll(t, f))

		require.NoError(t, f.Remove())
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("WriterAbortCleanup", func(t *testing.T) {
		dir := t.TempDir()
		f, err := tempfile.New(dir).Provide()
		require.NoError(t, err)

		w, err := f.Create()
		require.NoError(t, err)
		_, err = w.Write([]byte("partial"))
		require.NoError(t, err)

		// remove before the writer is done, as an aborted run would
		require.NoError(t, f.Remove())
		_ = w.Close()

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("OpenAfterRemove", func(t *testing.T) {
		f, err := tempfile.New(t.TempDir()).Provide()
		require.NoError(t, err)
		require.NoError(t, f.Remove())

		_, err = f.Open()
		assert.True(t, os.IsNotExist(err), "expected not-exist error, got %v", err)
	})
}
