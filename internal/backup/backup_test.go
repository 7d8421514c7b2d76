package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTakeWritesTimestampedCopyAndRotates(t *testing.T) {
	storeDir := t.TempDir()
	src := filepath.Join(storeDir, "project.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"v":1}`), 0644))

	limits := RotationLimits{Operational: 2, Safety: 2}
	now := time.Now().UTC()

	_, err := Take(storeDir, KindOperational, src, limits, now)
	require.NoError(t, err)
	_, err = Take(storeDir, KindOperational, src, limits, now.Add(time.Second))
	require.NoError(t, err)
	_, err = Take(storeDir, KindOperational, src, limits, now.Add(2*time.Second))
	require.NoError(t, err)

	names, err := List(storeDir, KindOperational)
	require.NoError(t, err)
	assert.Len(t, names, 2, "rotation must prune down to the configured limit")
}

func TestTakeMissingSourceIsNoop(t *testing.T) {
	storeDir := t.TempDir()
	missing := filepath.Join(storeDir, "nope.json")
	dst, err := Take(storeDir, KindOperational, missing, RotationLimits{Operational: 5}, time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, dst)
}

func TestRestoreWritesDataAndTakesSafetyBackupFirst(t *testing.T) {
	storeDir := t.TempDir()
	dst := filepath.Join(storeDir, "project.json")
	require.NoError(t, os.WriteFile(dst, []byte(`{"v":"old"}`), 0644))

	backupPath := filepath.Join(t.TempDir(), "project.json.bak")
	require.NoError(t, os.WriteFile(backupPath, []byte(`{"v":"restored"}`), 0644))

	limits := RotationLimits{Operational: 5, Safety: 5}
	require.NoError(t, Restore(storeDir, backupPath, dst, limits, time.Now().UTC()))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, `{"v":"restored"}`, string(got))

	safety, err := List(storeDir, KindSafety)
	require.NoError(t, err)
	assert.Len(t, safety, 1, "restore must take a pre-restore safety backup of the old content")
}

func TestListUnknownPoolReturnsEmpty(t *testing.T) {
	storeDir := t.TempDir()
	names, err := List(storeDir, KindSafety)
	require.NoError(t, err)
	assert.Empty(t, names)
}
