package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCodeKnownAndUnknownCodes(t *testing.T) {
	assert.Equal(t, 1, ExitCode(CodeValidation))
	assert.Equal(t, 24, ExitCode(CodeCircularDependency))
	assert.Equal(t, 100, ExitCode(CodeNoChange))
	assert.Equal(t, 9, ExitCode(Code("SOMETHING_NEW")))
}

func TestKindOfGroupsCodesByTaxonomy(t *testing.T) {
	assert.Equal(t, KindSuccessInfo, KindOf(CodeNoChange))
	assert.Equal(t, KindConflict, KindOf(CodeCircularDependency))
	assert.Equal(t, KindGate, KindOf(CodeGateNotMet))
	assert.Equal(t, KindProvenance, KindOf(CodeSessionRequired))
	assert.Equal(t, KindInternal, KindOf(CodeInternal))
}

func TestNewErrorFormatsMessageAndCode(t *testing.T) {
	err := New(CodeNotFound, "task %s not found", "T001")
	assert.Equal(t, CodeNotFound, err.Code)
	assert.Equal(t, "NOT_FOUND: task T001 not found", err.Error())
}

func TestWrapPreservesCauseForUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodeInternal, cause, "failed to write store")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestWithFixAndAlternativesChain(t *testing.T) {
	err := New(CodeDependencyError, "task has unmet dependencies").
		WithFix("complete its dependencies first").
		WithAlternatives(Alternative{Action: "show-deps", Command: "cleo show T001"})

	assert.Equal(t, "complete its dependencies first", err.Fix)
	require.Len(t, err.Alternatives, 1)
	assert.Equal(t, "show-deps", err.Alternatives[0].Action)
}

func TestAsErrorPassesThroughAndWrapsUnknown(t *testing.T) {
	native := New(CodeValidation, "bad input")
	assert.Same(t, native, AsError(native))

	wrapped := AsError(errors.New("boom"))
	require.NotNil(t, wrapped)
	assert.Equal(t, CodeInternal, wrapped.Code)

	assert.Nil(t, AsError(nil))
}
