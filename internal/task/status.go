package task

import (
	"time"

	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/schema"
	"github.com/cleohq/cleo/internal/types"
)

// TransitionOpts carries the fields a status change may require (§4.5).
type TransitionOpts struct {
	BlockedBy          string
	CancellationReason string
}

// Transition moves t to a new status, applying the side effects of §4.5:
// done sets completedAt; cancelled sets cancelledAt and requires a reason;
// blocked requires blockedBy; reopen from done/cancelled clears the
// terminal timestamp and appends an audit note.
func Transition(t *types.Task, to types.Status, opts TransitionOpts, prov Provenance, now time.Time) (*types.Task, error) {
	if !types.CanTransition(t.Status, to) {
		return nil, errs.New(errs.CodeInvalidTransition, "cannot move task %s from %s to %s", t.ID, t.Status, to).
			WithFix("check the allowed transitions for the current status")
	}

	c := t.Clone()
	from := c.Status
	c.Status = to

	switch to {
	case types.StatusDone:
		ts := now
		c.CompletedAt = &ts
	case types.StatusCancelled:
		c.CancellationReason = opts.CancellationReason
		ts := now
		c.CancelledAt = &ts
	case types.StatusBlocked:
		c.BlockedBy = opts.BlockedBy
	case types.StatusPending, types.StatusActive:
		if from == types.StatusDone {
			c.CompletedAt = nil
			c.Notes = append(c.Notes, types.Note{At: now, Author: prov.Actor, Text: "reopened from done"})
		}
		if from == types.StatusCancelled {
			c.CancelledAt = nil
			c.Notes = append(c.Notes, types.Note{At: now, Author: prov.Actor, Text: "restored from cancelled (was: " + c.CancellationReason + ")"})
			c.CancellationReason = ""
		}
	}

	touch(c, prov, now)
	if err := schema.ValidateTask(c, now); err != nil {
		return nil, err
	}
	return c, nil
}

// Uncancel reverses cancelled → pending, clearing cancelledAt and
// cancellationReason and appending a restoration note that preserves the
// original reason (§4.12).
func Uncancel(t *types.Task, prov Provenance, now time.Time) (*types.Task, error) {
	if t.Status != types.StatusCancelled {
		return nil, errs.New(errs.CodeNotCancelled, "task %s is not cancelled", t.ID)
	}
	return Transition(t, types.StatusPending, TransitionOpts{}, prov, now)
}
