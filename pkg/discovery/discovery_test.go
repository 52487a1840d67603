package discovery_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netlogdiff/netlogdiff/pkg/discovery"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0o644))
}

func TestFindPairsCompleteAndIncomplete(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "10.0.0.1_preCheck.log")
	touch(t, dir, "10.0.0.1_postCheck.log")
	touch(t, dir, "10.0.0.2_preCheck.log")
	touch(t, dir, "notes.txt")

	pairs, err := discovery.Find(dir)
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	assert.Equal(t, "10.0.0.1", pairs[0].Address)
	assert.Equal(t, discovery.StatusOK, pairs[0].Status)
	assert.Equal(t, "Root", pairs[0].Folder)
	assert.NotEmpty(t, pairs[0].PreFile)
	assert.NotEmpty(t, pairs[0].PostFile)

	assert.Equal(t, "10.0.0.2", pairs[1].Address)
	assert.Equal(t, discovery.StatusMissingPost, pairs[1].Status)
	assert.Equal(t, "Root", pairs[1].Folder)
	assert.Empty(t, pairs[1].PostFile)
}

func TestFindRecursesAndGroupsByFolder(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "10.0.0.1_preCheck.log")
	touch(t, dir, "10.0.0.1_postCheck.log")

	site := filepath.Join(dir, "site-a")
	require.NoError(t, os.MkdirAll(site, 0o755))
	touch(t, site, "10.0.0.2_preCheck.log")
	touch(t, site, "10.0.0.2_postCheck.log")

	pairs, err := discovery.Find(dir)
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	// sorted by (Folder, Address): "Root" < "site-a"
	assert.Equal(t, "Root", pairs[0].Folder)
	assert.Equal(t, "10.0.0.1", pairs[0].Address)

	assert.Equal(t, "site-a", pairs[1].Folder)
	assert.Equal(t, "10.0.0.2", pairs[1].Address)
	assert.Equal(t, discovery.StatusOK, pairs[1].Status)
}

func TestFindEmptyDir(t *testing.T) {
	pairs, err := discovery.Find(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestFindCaseInsensitiveSuffix(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "192.168.1.1_PRECHECK.LOG")
	pairs, err := discovery.Find(dir)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, discovery.StatusMissingPost, pairs[0].Status)
}
