package hooks

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleohq/cleo/internal/types"
)

func writeHook(t *testing.T, dir, name, script string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(script), 0755))
}

func TestHookExistsRequiresExecutableBit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, HookOnCreate), []byte("#!/bin/sh\nexit 0\n"), 0644))
	r := NewRunner(dir)
	assert.False(t, r.HookExists(EventCreate), "non-executable hook files must not count as installed")

	writeHook(t, dir, HookOnCreate, "#!/bin/sh\nexit 0\n")
	assert.True(t, r.HookExists(EventCreate))
}

func TestRunSyncPropagatesHookFailure(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, HookOnUpdate, "#!/bin/sh\nexit 1\n")
	r := NewRunner(dir)
	err := r.RunSync(EventUpdate, &types.Task{ID: "T001"})
	assert.Error(t, err)
}

func TestRunSyncNoopWhenHookMissing(t *testing.T) {
	r := NewRunner(t.TempDir())
	err := r.RunSync(EventClose, &types.Task{ID: "T001"})
	assert.NoError(t, err)
}

func TestRunSyncReceivesTaskJSONOnStdin(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "captured.json")
	writeHook(t, dir, HookOnStatusChange, "#!/bin/sh\ncat > "+out+"\n")
	r := NewRunner(dir)
	require.NoError(t, r.RunSync(EventStatusChange, &types.Task{ID: "T042", Title: "ship it"}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "T042")
	assert.Contains(t, string(data), "ship it")
}

func TestRunSyncTimesOutOnSlowHook(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, HookOnCreate, "#!/bin/sh\nsleep 5\n")
	r := NewRunner(dir)
	r.timeout = 50 * time.Millisecond

	start := time.Now()
	err := r.RunSync(EventCreate, &types.Task{ID: "T001"})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second, "timeout must kill the hook well before it finishes sleeping")
}
