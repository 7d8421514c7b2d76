package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/types"
)

func baseTask() *types.Task {
	now := time.Now().UTC()
	return &types.Task{
		ID: "T001", Title: "write tests", Type: types.TypeTask,
		Status: types.StatusPending, Priority: types.PriorityMedium,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestTransitionToDoneStampsCompletedAt(t *testing.T) {
	tsk := baseTask()
	now := time.Now().UTC()
	updated, err := Transition(tsk, types.StatusDone, TransitionOpts{}, Provenance{Actor: "alice"}, now)
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, "alice", updated.ModifiedBy)
}

func TestTransitionToCancelledRequiresReason(t *testing.T) {
	tsk := baseTask()
	now := time.Now().UTC()
	_, err := Transition(tsk, types.StatusCancelled, TransitionOpts{CancellationReason: "no"}, Provenance{}, now)
	require.Error(t, err, "reason under 5 chars fails schema validation")

	updated, err := Transition(tsk, types.StatusCancelled, TransitionOpts{CancellationReason: "duplicate of T002"}, Provenance{}, now)
	require.NoError(t, err)
	require.NotNil(t, updated.CancelledAt)
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	tsk := baseTask()
	tsk.Status = types.StatusArchived
	_, err := Transition(tsk, types.StatusActive, TransitionOpts{}, Provenance{}, time.Now().UTC())
	require.Error(t, err)
	assert.Equal(t, errs.CodeInvalidTransition, errs.AsError(err).Code)
}

func TestTransitionReopenFromDoneAppendsNote(t *testing.T) {
	tsk := baseTask()
	now := time.Now().UTC()
	done, err := Transition(tsk, types.StatusDone, TransitionOpts{}, Provenance{}, now)
	require.NoError(t, err)

	reopened, err := Transition(done, types.StatusPending, TransitionOpts{}, Provenance{Actor: "bob"}, now)
	require.NoError(t, err)
	assert.Nil(t, reopened.CompletedAt)
	require.NotEmpty(t, reopened.Notes)
	assert.Contains(t, reopened.Notes[len(reopened.Notes)-1].Text, "reopened")
}

func TestUncancelRestoresPendingAndPreservesReason(t *testing.T) {
	tsk := baseTask()
	now := time.Now().UTC()
	cancelled, err := Transition(tsk, types.StatusCancelled, TransitionOpts{CancellationReason: "blocked upstream"}, Provenance{}, now)
	require.NoError(t, err)

	restored, err := Uncancel(cancelled, Provenance{Actor: "carol"}, now)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, restored.Status)
	assert.Empty(t, restored.CancellationReason)
	require.NotEmpty(t, restored.Notes)
	assert.Contains(t, restored.Notes[len(restored.Notes)-1].Text, "blocked upstream")
}

func TestUncancelRequiresCancelledStatus(t *testing.T) {
	tsk := baseTask()
	_, err := Uncancel(tsk, Provenance{}, time.Now().UTC())
	require.Error(t, err)
	assert.Equal(t, errs.CodeNotCancelled, errs.AsError(err).Code)
}
