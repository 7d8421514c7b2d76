package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/types"
)

func TestStartRejectsSecondPrimaryWithoutMultiSession(t *testing.T) {
	store := &types.SessionStore{}
	now := time.Now().UTC()
	_, err := Start(store, "global", "claude", "tty-1", Options{}, now)
	require.NoError(t, err)

	_, err = Start(store, "global", "claude", "tty-2", Options{}, now)
	require.Error(t, err)
	assert.Equal(t, errs.CodeValidation, errs.AsError(err).Code)
}

func TestStartAllowsMultipleWithMultiSession(t *testing.T) {
	store := &types.SessionStore{}
	now := time.Now().UTC()
	_, err := Start(store, "global", "claude", "tty-1", Options{MultiSession: true}, now)
	require.NoError(t, err)
	_, err = Start(store, "global", "claude", "tty-2", Options{MultiSession: true}, now)
	require.NoError(t, err)
	assert.Len(t, store.Sessions, 2)
}

func TestEndRequiresNoteWhenPolicySet(t *testing.T) {
	store := &types.SessionStore{}
	now := time.Now().UTC()
	s, err := Start(store, "global", "claude", "tty-1", Options{}, now)
	require.NoError(t, err)

	err = End(store, s.ID, "", Options{RequireNotes: true}, now)
	require.Error(t, err)

	err = End(store, s.ID, "wrapped up the refactor", Options{RequireNotes: true}, now)
	require.NoError(t, err)
	assert.NotNil(t, s.EndedAt)
	assert.Empty(t, store.Meta.ActiveSession)
}

func TestEndRejectsAlreadyEndedSession(t *testing.T) {
	store := &types.SessionStore{}
	now := time.Now().UTC()
	s, err := Start(store, "global", "claude", "tty-1", Options{}, now)
	require.NoError(t, err)
	require.NoError(t, End(store, s.ID, "", Options{}, now))

	err = End(store, s.ID, "", Options{}, now)
	require.Error(t, err)
	assert.Equal(t, errs.CodeAlreadyInState, errs.AsError(err).Code)
}

func TestResolvePrefersTerminalBindingOverActiveSession(t *testing.T) {
	store := &types.SessionStore{}
	now := time.Now().UTC()
	_, err := Start(store, "global", "claude", "tty-1", Options{MultiSession: true}, now)
	require.NoError(t, err)
	bound, err := Start(store, "global", "claude", "tty-2", Options{MultiSession: true}, now)
	require.NoError(t, err)
	store.Meta.ActiveSession = store.Sessions[0].ID

	resolved := Resolve(store, "tty-2")
	require.NotNil(t, resolved)
	assert.Equal(t, bound.ID, resolved.ID)
}

func TestResolveFallsBackToActiveSession(t *testing.T) {
	store := &types.SessionStore{}
	now := time.Now().UTC()
	s, err := Start(store, "global", "claude", "tty-1", Options{}, now)
	require.NoError(t, err)

	resolved := Resolve(store, "some-other-terminal")
	require.NotNil(t, resolved)
	assert.Equal(t, s.ID, resolved.ID)
}

func TestSetFocusOnlyOverwritesProvidedFields(t *testing.T) {
	focus := &types.Focus{CurrentTask: "T001", CurrentPhase: "design"}
	SetFocus(focus, "", "build", "", "", "sess-1")
	assert.Equal(t, "T001", focus.CurrentTask, "blank taskID must not clear an existing focus")
	assert.Equal(t, "build", focus.CurrentPhase)
	assert.Equal(t, "sess-1", focus.PrimarySession)
}

func TestRequireFocusAndRequireSession(t *testing.T) {
	err := RequireFocus(&types.Focus{})
	require.Error(t, err)
	assert.Equal(t, errs.CodeFocusRequired, errs.AsError(err).Code)
	assert.NoError(t, RequireFocus(&types.Focus{CurrentTask: "T001"}))

	err = RequireSession(&types.SessionStore{})
	require.Error(t, err)
	assert.Equal(t, errs.CodeSessionRequired, errs.AsError(err).Code)
	assert.NoError(t, RequireSession(&types.SessionStore{Meta: types.Meta{ActiveSession: "sess-1"}}))
}
