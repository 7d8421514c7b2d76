package checkpoint

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func TestOpenInitsRepoOnce(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	r, err := Open(dir)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(dir, ".git"))

	// second Open against the same dir must not fail or re-init
	r2, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, r.dir, r2.dir)
}

func TestStageCopiesFilesAndCommits(t *testing.T) {
	requireGit(t)
	src := t.TempDir()
	tasksPath := filepath.Join(src, "tasks.json")
	require.NoError(t, os.WriteFile(tasksPath, []byte(`{"tasks":[]}`), 0644))

	dir := t.TempDir()
	r, err := Open(dir)
	require.NoError(t, err)

	err = r.Stage("task.create", map[string]string{"tasks.json": tasksPath}, time.Now().UTC())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "tasks.json"))

	log := exec.Command("git", "log", "--oneline")
	log.Dir = dir
	out, err := log.CombinedOutput()
	require.NoError(t, err)
	assert.Contains(t, string(out), "task.create")
}

func TestStageSkipsMissingSourceFiles(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	r, err := Open(dir)
	require.NoError(t, err)

	err = r.Stage("task.create", map[string]string{"tasks.json": filepath.Join(t.TempDir(), "missing.json")}, time.Now().UTC())
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "tasks.json"))
}

func TestTryStageSwallowsErrorsIntoWarning(t *testing.T) {
	// a file path used as the checkpoint directory cannot be mkdir'd into,
	// so Open fails and TryStage must return a warning, not panic or error.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	warning := TryStage(filepath.Join(blocker, "nested"), "task.create", nil, time.Now().UTC())
	assert.NotEmpty(t, warning)
}
