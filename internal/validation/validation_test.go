package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/types"
)

func TestExistsRejectsNil(t *testing.T) {
	err := Exists("T001")(nil)
	require.Error(t, err)
	assert.Equal(t, errs.CodeNotFound, errs.AsError(err).Code)
}

func TestNotArchivedRejectsArchivedAllowsOthers(t *testing.T) {
	assert.NoError(t, NotArchived()(&types.Task{Status: types.StatusPending}))
	err := NotArchived()(&types.Task{ID: "T001", Status: types.StatusArchived})
	require.Error(t, err)
	assert.Equal(t, errs.CodeInvalidTransition, errs.AsError(err).Code)
}

func TestNotCompletedRejectsDone(t *testing.T) {
	assert.NoError(t, NotCompleted()(&types.Task{Status: types.StatusPending}))
	err := NotCompleted()(&types.Task{ID: "T001", Status: types.StatusDone})
	require.Error(t, err)
	assert.Equal(t, errs.CodeTaskCompleted, errs.AsError(err).Code)
}

func TestIsCancelledRequiresCancelledStatus(t *testing.T) {
	err := IsCancelled()(&types.Task{ID: "T001", Status: types.StatusPending})
	require.Error(t, err)
	assert.Equal(t, errs.CodeNotCancelled, errs.AsError(err).Code)
	assert.NoError(t, IsCancelled()(&types.Task{Status: types.StatusCancelled}))
}

func TestHasNoChildrenRejectsWhenChildrenPresent(t *testing.T) {
	children := []*types.Task{{ID: "T002"}}
	err := HasNoChildren(children)(&types.Task{ID: "T001"})
	require.Error(t, err)
	assert.Equal(t, errs.CodeHasChildren, errs.AsError(err).Code)
	assert.NoError(t, HasNoChildren(nil)(&types.Task{ID: "T001"}))
}

func TestChainStopsAtFirstFailure(t *testing.T) {
	err := Chain(Exists("T001"), NotArchived())(nil)
	require.Error(t, err)
	assert.Equal(t, errs.CodeNotFound, errs.AsError(err).Code, "Exists must fail before NotArchived runs")
}

func TestChainPassesWhenAllValidatorsPass(t *testing.T) {
	tsk := &types.Task{ID: "T001", Status: types.StatusPending}
	assert.NoError(t, Chain(Exists("T001"), NotArchived(), NotCompleted())(tsk))
}
