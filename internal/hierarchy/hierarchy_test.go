package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/types"
)

func TestValidateNewChildEnforcesDepth(t *testing.T) {
	epic := &types.Task{ID: "T001", Type: types.TypeEpic}
	taskUnderEpic := &types.Task{ID: "T002", Type: types.TypeTask, ParentID: "T001"}
	subtask := &types.Task{ID: "T003", Type: types.TypeSubtask, ParentID: "T002"}
	byID := map[string]*types.Task{"T001": epic, "T002": taskUnderEpic, "T003": subtask}

	err := ValidateNewChild("T003", types.TypeTask, byID, nil, Limits{})
	require.Error(t, err)
	assert.Equal(t, errs.CodeDepthExceeded, errs.AsError(err).Code)
}

func TestValidateNewChildImpliesTypeFromParent(t *testing.T) {
	epic := &types.Task{ID: "T001", Type: types.TypeEpic}
	byID := map[string]*types.Task{"T001": epic}

	err := ValidateNewChild("T001", types.TypeSubtask, byID, nil, Limits{})
	require.Error(t, err)
	assert.Equal(t, errs.CodeValidation, errs.AsError(err).Code)

	err = ValidateNewChild("T001", types.TypeTask, byID, nil, Limits{})
	assert.NoError(t, err)
}

func TestCheckSiblingCapsActiveVsTotal(t *testing.T) {
	var siblings []*types.Task
	for i := 0; i < 3; i++ {
		siblings = append(siblings, &types.Task{ID: "sib", Status: types.StatusPending})
	}

	err := checkSiblingCaps(siblings, Limits{MaxActiveSiblings: 3})
	require.Error(t, err)
	assert.Equal(t, errs.CodeSiblingCapExceeded, errs.AsError(err).Code)

	err = checkSiblingCaps(siblings, Limits{MaxActiveSiblings: 10, MaxSiblings: 0})
	assert.NoError(t, err, "MaxSiblings=0 means unbounded per Open Question 3")
}

func TestValidateReparentRejectsSelfAndCycle(t *testing.T) {
	root := &types.Task{ID: "T001", Type: types.TypeEpic}
	child := &types.Task{ID: "T002", Type: types.TypeTask, ParentID: "T001"}
	byID := map[string]*types.Task{"T001": root, "T002": child}

	err := ValidateReparent("T001", "T001", byID, nil, Limits{})
	require.Error(t, err)

	err = ValidateReparent("T001", "T002", byID, nil, Limits{})
	require.Error(t, err, "T001 is an ancestor of T002; reparenting under its own descendant cycles")
}

func TestCheckPositionVersionConflict(t *testing.T) {
	task := &types.Task{ID: "T001", PositionVersion: 2}
	assert.NoError(t, CheckPositionVersion(task, 2))

	err := CheckPositionVersion(task, 1)
	require.Error(t, err)
	assert.Equal(t, errs.CodePositionConflict, errs.AsError(err).Code)
}

func TestCascadeSetBFS(t *testing.T) {
	tasks := []*types.Task{
		{ID: "T001", Type: types.TypeEpic},
		{ID: "T002", Type: types.TypeTask, ParentID: "T001"},
		{ID: "T003", Type: types.TypeTask, ParentID: "T001"},
		{ID: "T004", Type: types.TypeSubtask, ParentID: "T002"},
	}
	set := CascadeSet("T001", ChildrenOf(tasks))
	assert.ElementsMatch(t, []string{"T002", "T003", "T004"}, set)
}
