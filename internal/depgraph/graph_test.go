package depgraph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleohq/cleo/internal/types"
)

func mkTask(id string, status types.Status, depends ...string) *types.Task {
	return &types.Task{
		ID:      id,
		Title:   "task " + id,
		Type:    types.TypeTask,
		Status:  status,
		Depends: depends,
	}
}

func TestBuildResolvesEdges(t *testing.T) {
	tasks := []*types.Task{
		mkTask("T001", types.StatusPending, "T002"),
		mkTask("T002", types.StatusDone),
	}
	g := Build(tasks)

	deps := g.DependsOn("T001")
	require.Len(t, deps, 1)
	assert.Equal(t, "T002", deps[0].ID)

	dependents := g.DependedOnBy("T002")
	require.Len(t, dependents, 1)
	assert.Equal(t, "T001", dependents[0].ID)
}

func TestAddDependencyRejectsSelfAndCycle(t *testing.T) {
	tasks := []*types.Task{
		mkTask("T001", types.StatusPending, "T002"),
		mkTask("T002", types.StatusPending),
	}
	g := Build(tasks)

	err := g.AddDependency("T001", "T001")
	require.Error(t, err)

	err = g.AddDependency("T002", "T001")
	require.Error(t, err, "T002 -> T001 would close a cycle since T001 already depends on T002")
}

func TestAddDependencyRejectsMissingTarget(t *testing.T) {
	tasks := []*types.Task{mkTask("T001", types.StatusPending)}
	g := Build(tasks)

	err := g.AddDependency("T001", "T999")
	require.Error(t, err)
}

func TestDetectCycleFindsCycle(t *testing.T) {
	tasks := []*types.Task{
		mkTask("T001", types.StatusPending, "T002"),
		mkTask("T002", types.StatusPending, "T003"),
		mkTask("T003", types.StatusPending, "T001"),
	}
	g := Build(tasks)
	cycle := g.DetectCycle()
	assert.NotEmpty(t, cycle)
}

func TestDetectCycleCleanGraph(t *testing.T) {
	tasks := []*types.Task{
		mkTask("T001", types.StatusPending, "T002"),
		mkTask("T002", types.StatusDone),
	}
	g := Build(tasks)
	assert.Nil(t, g.DetectCycle())
}

func TestAllDepsReadyAndLeafBlockers(t *testing.T) {
	tasks := []*types.Task{
		mkTask("T001", types.StatusPending, "T002"),
		mkTask("T002", types.StatusPending, "T003"),
		mkTask("T003", types.StatusPending),
	}
	g := Build(tasks)

	assert.False(t, g.AllDepsReady("T001", nil))

	blockers := g.LeafBlockers("T001", nil)
	require.Len(t, blockers, 1)
	assert.Equal(t, "T003", blockers[0].ID, "T003 has no unresolved deps of its own, making it the root cause")
}

func TestSatisfiedCountsArchivedByPriorState(t *testing.T) {
	tasks := []*types.Task{
		mkTask("T001", types.StatusPending, "T002"),
		{ID: "T002", Title: "archived dep", Type: types.TypeTask, Status: types.StatusArchived,
			Archive: &types.ArchiveInfo{ArchivedAt: time.Now()}},
	}
	g := Build(tasks)

	wasTerminal := func(id string) bool { return id == "T002" }
	assert.True(t, g.AllDepsReady("T001", wasTerminal))

	notTerminal := func(string) bool { return false }
	assert.False(t, g.AllDepsReady("T001", notTerminal))
}
