//go:build linux

package library

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCreated_StableAcrossChmodAndRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shot.png")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	info, err := os.Stat(path)
	require.NoError(t, err)

	before := fileCreated(path, info)
	assert.False(t, before.IsZero())
	assert.False(t, before.After(time.Now().Add(time.Second)))

	time.Sleep(20 * time.Millisecond)

	renamed := filepath.Join(dir, "renamed.png")
	require.NoError(t, os.Rename(path, renamed))
	require.NoError(t, os.Chmod(renamed, 0o600))

	info, err = os.Stat(renamed)
	require.NoError(t, err)
	assert.True(t, before.Equal(fileCreated(renamed, info)), "creation time must not move on chmod or rename")
}
