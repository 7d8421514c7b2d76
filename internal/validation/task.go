// Package validation composes small, named validators into chains, mirroring
// the teacher's issue-validator pattern: each rule is a standalone function,
// chained in the order the caller cares about, first failure wins.
package validation

import (
	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/types"
)

// TaskValidator validates a task and returns an error if validation fails.
type TaskValidator func(t *types.Task) error

// Chain composes validators into one; the first failing validator stops
// the chain and its error is returned.
func Chain(validators ...TaskValidator) TaskValidator {
	return func(t *types.Task) error {
		for _, v := range validators {
			if err := v(t); err != nil {
				return err
			}
		}
		return nil
	}
}

// Exists validates that a task reference is non-nil.
func Exists(id string) TaskValidator {
	return func(t *types.Task) error {
		if t == nil {
			return errs.New(errs.CodeNotFound, "task %s not found", id)
		}
		return nil
	}
}

// NotArchived validates that a task is not archived (archived tasks accept
// no direct transition; they must be restored, §4.5).
func NotArchived() TaskValidator {
	return func(t *types.Task) error {
		if t == nil {
			return nil
		}
		if t.Status == types.StatusArchived {
			return errs.New(errs.CodeInvalidTransition, "task %s is archived; restore it first", t.ID)
		}
		return nil
	}
}

// NotCompleted validates a task is not done — used to refuse hard delete
// of completed tasks (§4.12: "use archive").
func NotCompleted() TaskValidator {
	return func(t *types.Task) error {
		if t == nil {
			return nil
		}
		if t.Status == types.StatusDone {
			return errs.New(errs.CodeTaskCompleted, "task %s is completed; use archive instead of delete", t.ID)
		}
		return nil
	}
}

// IsCancelled validates a task is cancelled — a precondition of uncancel.
func IsCancelled() TaskValidator {
	return func(t *types.Task) error {
		if t == nil {
			return nil
		}
		if t.Status != types.StatusCancelled {
			return errs.New(errs.CodeNotCancelled, "task %s is not cancelled", t.ID)
		}
		return nil
	}
}

// HasNoChildren validates a task has no children in children, used before
// an unconditional (non-cascade) delete (§4.6: HAS_CHILDREN).
func HasNoChildren(children []*types.Task) TaskValidator {
	return func(t *types.Task) error {
		if t == nil {
			return nil
		}
		if len(children) > 0 {
			return errs.New(errs.CodeHasChildren, "task %s has %d children; pass cascade or remove them first", t.ID, len(children))
		}
		return nil
	}
}
