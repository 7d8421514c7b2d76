package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleohq/cleo/internal/types"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteAtomicThenReadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.json")
	require.NoError(t, WriteAtomic(path, doc{Name: "cleo", Count: 3}))

	var got doc
	require.NoError(t, Read(path, &got))
	assert.Equal(t, doc{Name: "cleo", Count: 3}, got)
}

func TestReadMissingFileIsNotExist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	var got doc
	err := Read(path, &got)
	require.Error(t, err)
	assert.True(t, IsNotExist(err))
}

func TestChecksumIsStableAcrossCalls(t *testing.T) {
	d := doc{Name: "cleo", Count: 1}
	a, err := Checksum(d)
	require.NoError(t, err)
	b, err := Checksum(d)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}

func TestChecksumChangesWithContent(t *testing.T) {
	a, err := Checksum(doc{Name: "cleo", Count: 1})
	require.NoError(t, err)
	b, err := Checksum(doc{Name: "cleo", Count: 2})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestReadProjectCheckedAcceptsMatchingChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	tasks := []*types.Task{{ID: "T001"}}
	checksum, err := Checksum(tasks)
	require.NoError(t, err)
	require.NoError(t, WriteAtomic(path, &types.Project{Tasks: tasks, Meta: types.Meta{Checksum: checksum}}))

	proj, warning, err := ReadProjectChecked(path)
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.Equal(t, "T001", proj.Tasks[0].ID)
}

func TestReadProjectCheckedSkipsValidationWhenChecksumUnset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, WriteAtomic(path, &types.Project{Tasks: []*types.Task{{ID: "T001"}}}))

	proj, warning, err := ReadProjectChecked(path)
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.Equal(t, "T001", proj.Tasks[0].ID)
}

func TestReadProjectCheckedWarnsOnPersistentMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, WriteAtomic(path, &types.Project{
		Tasks: []*types.Task{{ID: "T001"}},
		Meta:  types.Meta{Checksum: "deadbeefdeadbeef"},
	}))

	proj, warning, err := ReadProjectChecked(path)
	require.NoError(t, err)
	assert.NotEmpty(t, warning)
	assert.Equal(t, "T001", proj.Tasks[0].ID)
}

func TestWithLockExcludesConcurrentAccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, WriteAtomic(path, doc{Name: "a"}))

	results := make(chan int, 2)
	start := make(chan struct{})

	run := func(n int) {
		<-start
		_ = WithLock(path, time.Second, func() error {
			time.Sleep(20 * time.Millisecond)
			results <- n
			return nil
		})
	}
	go run(1)
	go run(2)
	close(start)

	first := <-results
	second := <-results
	assert.ElementsMatch(t, []int{1, 2}, []int{first, second})
}

func TestWithMultiLockOrdersPathsToAvoidDeadlock(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")

	var ran bool
	err := WithMultiLock([]string{b, a}, time.Second, func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestWithLockTimesOutWhenAlreadyHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, WriteAtomic(path, doc{Name: "a"}))

	release := make(chan struct{})
	holding := make(chan struct{})
	go func() {
		_ = WithLock(path, time.Second, func() error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding
	defer close(release)

	err := WithLock(path, 30*time.Millisecond, func() error {
		t.Fatal("fn must not run while the lock is held elsewhere")
		return nil
	})
	require.Error(t, err)
}
