package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/types"
)

func TestMoveWithoutCascadeRejectsTaskWithChildren(t *testing.T) {
	proj := &types.Project{Tasks: []*types.Task{
		{ID: "T001", Status: types.StatusPending},
		{ID: "T002", Status: types.StatusPending, ParentID: "T001"},
	}}
	arc := &types.Archive{}
	_, err := Move(proj, arc, "T001", false, "done with it", time.Now().UTC())
	require.Error(t, err)
	assert.Equal(t, errs.CodeHasChildren, errs.AsError(err).Code)
}

func TestMoveCascadeStampsArchiveInfoAndRemovesFromActive(t *testing.T) {
	proj := &types.Project{Tasks: []*types.Task{
		{ID: "T001", Status: types.StatusCancelled},
		{ID: "T002", Status: types.StatusPending, ParentID: "T001"},
	}}
	arc := &types.Archive{}
	now := time.Now().UTC()
	moved, err := Move(proj, arc, "T001", true, "stale epic", now)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"T001", "T002"}, moved)
	assert.Empty(t, proj.Tasks)
	require.Len(t, arc.ArchivedTasks, 2)
	for _, tsk := range arc.ArchivedTasks {
		require.NotNil(t, tsk.Archive)
		assert.Equal(t, "stale epic", tsk.Archive.Reason)
	}
}

func TestRestorePreservesStatusAsIs(t *testing.T) {
	// archiving a cancelled task and restoring it must not auto-uncancel;
	// restore is a pure inverse of archive, uncancel is a separate step.
	proj := &types.Project{}
	arc := &types.Archive{ArchivedTasks: []*types.Task{
		{ID: "T001", Status: types.StatusCancelled, Archive: &types.ArchiveInfo{ArchivedAt: time.Now().UTC()}},
	}}
	restored, err := Restore(proj, arc, "T001", false, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, []string{"T001"}, restored)
	require.Len(t, proj.Tasks, 1)
	assert.Equal(t, types.StatusCancelled, proj.Tasks[0].Status)
	assert.Nil(t, proj.Tasks[0].Archive)
}

func TestRestoreRejectsIDAlreadyActive(t *testing.T) {
	proj := &types.Project{Tasks: []*types.Task{{ID: "T001", Status: types.StatusPending}}}
	arc := &types.Archive{ArchivedTasks: []*types.Task{
		{ID: "T001", Status: types.StatusPending, Archive: &types.ArchiveInfo{ArchivedAt: time.Now().UTC()}},
	}}
	_, err := Restore(proj, arc, "T001", false, time.Now().UTC())
	require.Error(t, err)
	assert.Equal(t, errs.CodeAlreadyExists, errs.AsError(err).Code)
}

func TestPreviewDeleteRejectsCompletedTask(t *testing.T) {
	proj := &types.Project{Tasks: []*types.Task{{ID: "T001", Status: types.StatusDone}}}
	_, err := PreviewDelete(proj, "T001", false)
	require.Error(t, err)
	assert.Equal(t, errs.CodeTaskCompleted, errs.AsError(err).Code)
}

func TestPreviewDeleteCascadeListsDescendantsAndWarns(t *testing.T) {
	proj := &types.Project{Tasks: []*types.Task{
		{ID: "T001", Status: types.StatusPending},
		{ID: "T002", Status: types.StatusPending, ParentID: "T001"},
	}}
	prev, err := PreviewDelete(proj, "T001", true)
	require.NoError(t, err)
	assert.Equal(t, "T001", prev.Primary)
	assert.Equal(t, []string{"T002"}, prev.Descendants)
	found := false
	for _, w := range prev.Warnings {
		if w.Code == WarnCascadeDelete {
			found = true
		}
	}
	assert.True(t, found, "cascading delete of a task with children must warn")
}
