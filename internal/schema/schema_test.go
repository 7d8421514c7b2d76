package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleohq/cleo/internal/types"
)

func baseTask(now time.Time) *types.Task {
	return &types.Task{
		ID: "T001", Title: "write release notes", Type: types.TypeTask,
		Status: types.StatusPending, Priority: types.PriorityMedium, Size: types.SizeMedium,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestCheckVersionAcceptsCurrentRejectsOlder(t *testing.T) {
	assert.NoError(t, CheckVersion("1.0.0"))
	assert.NoError(t, CheckVersion("v1.0.0"))
	assert.Error(t, CheckVersion("0.9.0"))
	assert.Error(t, CheckVersion("not-a-version"))
}

func TestContainsShellMetaDetectsDangerousChars(t *testing.T) {
	assert.True(t, ContainsShellMeta("rm -rf `whoami`"))
	assert.False(t, ContainsShellMeta("blocked on upstream review"))
}

func TestValidateTimestampRejectsFarFuture(t *testing.T) {
	now := time.Now().UTC()
	assert.NoError(t, ValidateTimestamp(now.Add(time.Minute), now))
	assert.Error(t, ValidateTimestamp(now.Add(time.Hour), now))
}

func TestValidateTaskRejectsEqualTitleAndDescription(t *testing.T) {
	now := time.Now().UTC()
	tsk := baseTask(now)
	tsk.Description = "Write Release Notes"
	require.Error(t, ValidateTask(tsk, now))
}

func TestValidateTaskRequiresCancellationReasonWhenCancelled(t *testing.T) {
	now := time.Now().UTC()
	tsk := baseTask(now)
	tsk.Status = types.StatusCancelled
	tsk.CancelledAt = &now
	tsk.CancellationReason = "no"
	require.Error(t, ValidateTask(tsk, now), "reason shorter than 5 chars must be rejected")

	tsk.CancellationReason = "duplicate of T002"
	assert.NoError(t, ValidateTask(tsk, now))
}

func TestValidateTaskRejectsShellMetaInCancellationReason(t *testing.T) {
	now := time.Now().UTC()
	tsk := baseTask(now)
	tsk.Status = types.StatusCancelled
	tsk.CancelledAt = &now
	tsk.CancellationReason = "rm -rf `bad`"
	require.Error(t, ValidateTask(tsk, now))
}

func TestValidateTaskRequiresCompletedAtWhenDone(t *testing.T) {
	now := time.Now().UTC()
	tsk := baseTask(now)
	tsk.Status = types.StatusDone
	require.Error(t, ValidateTask(tsk, now))

	tsk.CompletedAt = &now
	assert.NoError(t, ValidateTask(tsk, now))
}

func TestValidateTaskRejectsInvalidLabelSlug(t *testing.T) {
	now := time.Now().UTC()
	tsk := baseTask(now)
	tsk.Labels = []string{"Not-A-Slug!"}
	require.Error(t, ValidateTask(tsk, now))

	tsk.Labels = []string{"backend", "p1"}
	assert.NoError(t, ValidateTask(tsk, now))
}

func TestValidateTaskRejectsTimestampTooFarInFuture(t *testing.T) {
	now := time.Now().UTC()
	tsk := baseTask(now)
	tsk.UpdatedAt = now.Add(time.Hour)
	require.Error(t, ValidateTask(tsk, now))
}
