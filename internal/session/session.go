// Package session implements Session & Focus (spec §4.9, component 9): a
// primary-session singleton unless multi-session mode is enabled, focus
// binding, and the terminal-binding fallback used to recover the active
// session of a detached agent.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/types"
)

// Options carries the config inputs relevant to session policy.
type Options struct {
	MultiSession  bool
	RequireNotes  bool
}

// Start opens a new session. Outside multi-session mode, an existing open
// session (EndedAt == nil) must be ended first.
func Start(store *types.SessionStore, scope, agent, terminalBinding string, opts Options, now time.Time) (*types.Session, error) {
	if !opts.MultiSession {
		if open := findOpen(store); open != nil {
			return nil, errs.New(errs.CodeValidation, "session %s is already open; end it before starting another", open.ID).
				WithFix("run the session end command first, or enable multi-session mode")
		}
	}

	s := &types.Session{
		ID:              uuid.NewString(),
		CreatedAt:       now,
		Scope:           scope,
		Agent:           agent,
		TerminalBinding: terminalBinding,
	}
	store.Sessions = append(store.Sessions, s)
	store.Meta.SessionCount++
	store.Meta.ActiveSession = s.ID
	return s, nil
}

// End closes a session, optionally requiring a closing note per
// RequireNotes policy.
func End(store *types.SessionStore, id, note string, opts Options, now time.Time) error {
	s := findByID(store, id)
	if s == nil {
		return errs.New(errs.CodeNotFound, "session %s not found", id)
	}
	if s.EndedAt != nil {
		return errs.New(errs.CodeAlreadyInState, "session %s already ended", id)
	}
	if opts.RequireNotes && note == "" {
		return errs.New(errs.CodeValidation, "a closing note is required to end this session").
			WithFix("pass --note with a summary of the session")
	}
	ts := now
	s.EndedAt = &ts
	s.Note = note
	if store.Meta.ActiveSession == id {
		store.Meta.ActiveSession = ""
	}
	return nil
}

// Resolve finds the session that should be treated as "current" for a
// caller bound to terminalBinding: first an exact terminal-binding match
// among open sessions, falling back to the store's activeSession pointer
// (§4.9).
func Resolve(store *types.SessionStore, terminalBinding string) *types.Session {
	if terminalBinding != "" {
		for _, s := range store.Sessions {
			if s.EndedAt == nil && s.TerminalBinding == terminalBinding {
				return s
			}
		}
	}
	if store.Meta.ActiveSession != "" {
		return findByID(store, store.Meta.ActiveSession)
	}
	return nil
}

func findOpen(store *types.SessionStore) *types.Session {
	for _, s := range store.Sessions {
		if s.EndedAt == nil {
			return s
		}
	}
	return nil
}

func findByID(store *types.SessionStore, id string) *types.Session {
	for _, s := range store.Sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// SetFocus binds the current task/phase/next-action on a project's Focus
// block and stamps the owning session (§4.9).
func SetFocus(focus *types.Focus, taskID, phase, note, nextAction, sessionID string) {
	if taskID != "" {
		focus.CurrentTask = taskID
	}
	if phase != "" {
		focus.CurrentPhase = phase
	}
	if note != "" {
		focus.SessionNote = note
	}
	if nextAction != "" {
		focus.NextAction = nextAction
	}
	focus.PrimarySession = sessionID
}

// RequireFocus returns FOCUS_REQUIRED when an operation needs a bound
// current task but none is set (§4.9).
func RequireFocus(focus *types.Focus) error {
	if focus.CurrentTask == "" {
		return errs.New(errs.CodeFocusRequired, "no task is currently focused").
			WithFix("run the focus command to bind a current task first")
	}
	return nil
}

// RequireSession returns SESSION_REQUIRED when an operation needs an open
// session but the store has none active (§4.9).
func RequireSession(store *types.SessionStore) error {
	if store.Meta.ActiveSession == "" {
		return errs.New(errs.CodeSessionRequired, "no session is active").
			WithFix("run the session start command first")
	}
	return nil
}
