package orchestrator_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netlogdiff/netlogdiff/pkg/diffengine"
	"github.com/netlogdiff/netlogdiff/pkg/discovery"
	"github.com/netlogdiff/netlogdiff/pkg/orchestrator"
	"github.com/netlogdiff/netlogdiff/pkg/render"
)

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunProducesOneReportPerOKPair(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()

	pre1 := writeLog(t, dir, "10.0.0.1_pre.log", "a\nb\nc\n")
	post1 := writeLog(t, dir, "10.0.0.1_post.log", "a\nx\nc\n")

	pairs := []discovery.HostPair{
		{Address: "10.0.0.1", PreFile: pre1, PostFile: post1, Status: discovery.StatusOK},
		{Address: "10.0.0.2", Status: discovery.StatusMissingPost},
	}

	eng := diffengine.NewDefault()
	results, err := orchestrator.Run(context.Background(), pairs, eng, render.CSV{}, "csv", out)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "10.0.0.1", results[0].Pair.Address)
	assert.True(t, results[0].Report.IsDifferent)
	assert.FileExists(t, filepath.Join(out, "diffs", "diff_10.0.0.1.csv"))

	assert.Equal(t, "10.0.0.2", results[1].Pair.Address)
	assert.Equal(t, "", results[1].Report.ID)
}

func TestRunPrefixesReportFilenameByFolder(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()

	pre := writeLog(t, dir, "10.0.0.1_pre.log", "a\nb\n")
	post := writeLog(t, dir, "10.0.0.1_post.log", "a\nc\n")

	pairs := []discovery.HostPair{
		{Address: "10.0.0.1", Folder: "site-a", PreFile: pre, PostFile: post, Status: discovery.StatusOK},
	}

	eng := diffengine.NewDefault()
	results, err := orchestrator.Run(context.Background(), pairs, eng, render.CSV{}, "csv", out)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "site-a", results[0].Report.Folder)
	assert.FileExists(t, filepath.Join(out, "diffs", "diff_site-a_10.0.0.1.csv"))
	assert.Equal(t, "site-a_10.0.0.1", orchestrator.ReportFileStem(pairs[0]))
}
