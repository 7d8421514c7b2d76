package sync

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleohq/cleo/internal/types"
)

func TestExportYAMLWritesOneDocumentSortedByID(t *testing.T) {
	now := time.Now().UTC()
	path := filepath.Join(t.TempDir(), "export.yaml")
	require.NoError(t, ExportYAML(sampleTasks(now), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)
	assert.True(t, indexBefore(content, "T001", "T002"), "tasks must be sorted by id in the document")
}

func TestImportYAMLRoundTripsExportYAML(t *testing.T) {
	now := time.Now().UTC()
	path := filepath.Join(t.TempDir(), "export.yaml")
	require.NoError(t, ExportYAML([]*types.Task{
		{ID: "T001", Title: "first", Type: types.TypeTask, Status: types.StatusPending,
			Priority: types.PriorityMedium, CreatedAt: now, UpdatedAt: now},
		{ID: "T002", Title: "second", Type: types.TypeTask, Status: types.StatusPending,
			Priority: types.PriorityMedium, CreatedAt: now, UpdatedAt: now},
	}, path))

	merged, res, err := ImportYAML(nil, path, ModeMerge, now)
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.ElementsMatch(t, []string{"T001", "T002"}, res.Added)
}

func TestImportYAMLSkipsInvalidRecords(t *testing.T) {
	now := time.Now().UTC()
	path := filepath.Join(t.TempDir(), "export.yaml")
	require.NoError(t, ExportYAML([]*types.Task{
		{ID: "T001", Title: "", Type: types.TypeTask, Status: types.StatusPending,
			Priority: types.PriorityMedium, CreatedAt: now, UpdatedAt: now},
	}, path))

	merged, res, err := ImportYAML(nil, path, ModeMerge, now)
	require.NoError(t, err)
	assert.Empty(t, merged)
	assert.ElementsMatch(t, []string{"T001"}, res.Skipped)
}

func indexBefore(s, a, b string) bool {
	ia := strings.Index(s, a)
	ib := strings.Index(s, b)
	return ia >= 0 && ib >= 0 && ia < ib
}
