package task

import (
	"time"

	"github.com/cleohq/cleo/internal/types"
)

// AppendNote adds a timestamped note. Notes are strictly append-only and
// are timestamped by the engine, never editable in place (§4.4).
func AppendNote(t *types.Task, text string, prov Provenance, now time.Time) *types.Task {
	c := t.Clone()
	c.Notes = append(c.Notes, types.Note{At: now, Author: prov.Actor, Text: text})
	touch(c, prov, now)
	return c
}

// AddRelation appends a relation entry (§3.1 `relates`). Relations are
// many-valued and not append/replace/clear governed like labels — each is
// added or removed individually since they carry metadata.
func AddRelation(t *types.Task, targetID string, kind types.RelationType, reason string, prov Provenance, now time.Time) *types.Task {
	c := t.Clone()
	c.Relates = append(c.Relates, types.Relation{
		TargetID:     targetID,
		RelationType: kind,
		Reason:       reason,
		AddedAt:      now,
	})
	touch(c, prov, now)
	return c
}

// RemoveRelation drops the first relation entry matching targetID+kind.
func RemoveRelation(t *types.Task, targetID string, kind types.RelationType, prov Provenance, now time.Time) *types.Task {
	c := t.Clone()
	out := c.Relates[:0]
	removed := false
	for _, r := range c.Relates {
		if !removed && r.TargetID == targetID && r.RelationType == kind {
			removed = true
			continue
		}
		out = append(out, r)
	}
	c.Relates = out
	touch(c, prov, now)
	return c
}

// StampVerification updates one gate of the verification block and the
// responsible agent; round increments whenever implemented flips back to
// false after a failed attempt (tracked by the caller via failureNote).
func StampVerification(t *types.Task, mutate func(*types.Verification), agent string, failureNote string, prov Provenance, now time.Time) *types.Task {
	c := t.Clone()
	mutate(&c.Verification)
	c.Verification.LastAgent = agent
	if failureNote != "" {
		c.Verification.FailureLog = append(c.Verification.FailureLog, failureNote)
		c.Verification.Round++
	}
	touch(c, prov, now)
	return c
}
