// Package task implements the Task Entity Layer (spec §4.4, component 5):
// pure mutation primitives that always stamp updatedAt and return the new
// task snapshot; the scalar and label setters (except ClearLabels) also run
// schema.ValidateTask, while the files and acceptance helpers and the
// notes.go helpers do not. List fields support the teacher's edit-mode
// vocabulary — append (default), replace (Set*), clear (Clear*) — instead
// of a single overloaded "update" string flag.
package task

import (
	"sort"
	"strings"
	"time"

	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/schema"
	"github.com/cleohq/cleo/internal/types"
)

// Provenance identifies who/what is driving a mutation, stamped by the
// engine — never accepted verbatim from a caller-supplied field (§3.1).
type Provenance struct {
	Actor     string
	SessionID string
}

// New constructs a task with provenance and timestamps stamped by the
// engine. Validation is the caller's responsibility (schema.ValidateTask).
func New(id string, title, description string, typ types.TaskType, parentID string, prov Provenance, now time.Time) *types.Task {
	return &types.Task{
		ID:          id,
		Title:       strings.TrimSpace(title),
		Description: description,
		Type:        typ,
		ParentID:    parentID,
		Position:    0,
		Status:      types.StatusPending,
		Priority:    types.PriorityMedium,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   prov.Actor,
		ModifiedBy:  prov.Actor,
		SessionID:   prov.SessionID,
	}
}

// touch stamps updatedAt/modifiedBy; every mutation primitive calls this
// last, right before returning (§4.4 rule a).
func touch(t *types.Task, prov Provenance, now time.Time) {
	t.UpdatedAt = now
	if prov.Actor != "" {
		t.ModifiedBy = prov.Actor
	}
}

// SetTitle overwrites the scalar title field.
func SetTitle(t *types.Task, title string, prov Provenance, now time.Time) (*types.Task, error) {
	c := t.Clone()
	c.Title = strings.TrimSpace(title)
	touch(c, prov, now)
	if err := schema.ValidateTask(c, now); err != nil {
		return nil, err
	}
	return c, nil
}

// SetDescription overwrites the scalar description field.
func SetDescription(t *types.Task, description string, prov Provenance, now time.Time) (*types.Task, error) {
	c := t.Clone()
	c.Description = description
	touch(c, prov, now)
	if err := schema.ValidateTask(c, now); err != nil {
		return nil, err
	}
	return c, nil
}

// SetPriority overwrites priority.
func SetPriority(t *types.Task, p types.Priority, prov Provenance, now time.Time) (*types.Task, error) {
	c := t.Clone()
	c.Priority = p
	touch(c, prov, now)
	if err := schema.ValidateTask(c, now); err != nil {
		return nil, err
	}
	return c, nil
}

// SetSize overwrites size.
func SetSize(t *types.Task, s types.Size, prov Provenance, now time.Time) (*types.Task, error) {
	c := t.Clone()
	c.Size = s
	touch(c, prov, now)
	if err := schema.ValidateTask(c, now); err != nil {
		return nil, err
	}
	return c, nil
}

// SetPhase overwrites phase. validPhase reports whether key exists in the
// project's phase set; callers pass it from the project document.
func SetPhase(t *types.Task, phase string, validPhase func(string) bool, prov Provenance, now time.Time) (*types.Task, error) {
	if phase != "" && !validPhase(phase) {
		return nil, errs.New(errs.CodeValidation, "unknown phase %q", phase)
	}
	c := t.Clone()
	c.Phase = phase
	touch(c, prov, now)
	if err := schema.ValidateTask(c, now); err != nil {
		return nil, err
	}
	return c, nil
}

// --- Labels: append (default), SetLabels (replace), ClearLabels ---

// AppendLabels adds labels to the set, de-duplicating.
func AppendLabels(t *types.Task, labels []string, prov Provenance, now time.Time) (*types.Task, error) {
	c := t.Clone()
	c.Labels = unionSorted(c.Labels, labels)
	touch(c, prov, now)
	if err := schema.ValidateTask(c, now); err != nil {
		return nil, err
	}
	return c, nil
}

// SetLabels replaces the label set wholesale.
func SetLabels(t *types.Task, labels []string, prov Provenance, now time.Time) (*types.Task, error) {
	c := t.Clone()
	c.Labels = unionSorted(nil, labels)
	touch(c, prov, now)
	if err := schema.ValidateTask(c, now); err != nil {
		return nil, err
	}
	return c, nil
}

// ClearLabels empties the label set.
func ClearLabels(t *types.Task, prov Provenance, now time.Time) (*types.Task, error) {
	c := t.Clone()
	c.Labels = nil
	touch(c, prov, now)
	return c, nil
}

func unionSorted(existing, add []string) []string {
	set := make(map[string]bool, len(existing)+len(add))
	for _, l := range existing {
		set[l] = true
	}
	for _, l := range add {
		set[l] = true
	}
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// --- Files / Acceptance: ordered lists, append/replace/clear ---

func AppendFiles(t *types.Task, files []string, prov Provenance, now time.Time) (*types.Task, error) {
	c := t.Clone()
	c.Files = append(c.Files, files...)
	touch(c, prov, now)
	return c, nil
}

func SetFiles(t *types.Task, files []string, prov Provenance, now time.Time) (*types.Task, error) {
	c := t.Clone()
	c.Files = append([]string(nil), files...)
	touch(c, prov, now)
	return c, nil
}

func ClearFiles(t *types.Task, prov Provenance, now time.Time) (*types.Task, error) {
	c := t.Clone()
	c.Files = nil
	touch(c, prov, now)
	return c, nil
}

func AppendAcceptance(t *types.Task, items []string, prov Provenance, now time.Time) (*types.Task, error) {
	c := t.Clone()
	c.Acceptance = append(c.Acceptance, items...)
	touch(c, prov, now)
	return c, nil
}

func SetAcceptance(t *types.Task, items []string, prov Provenance, now time.Time) (*types.Task, error) {
	c := t.Clone()
	c.Acceptance = append([]string(nil), items...)
	touch(c, prov, now)
	return c, nil
}

func ClearAcceptance(t *types.Task, prov Provenance, now time.Time) (*types.Task, error) {
	c := t.Clone()
	c.Acceptance = nil
	touch(c, prov, now)
	return c, nil
}
