package archive

import (
	"sort"

	"github.com/cleohq/cleo/internal/depgraph"
	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/hierarchy"
	"github.com/cleohq/cleo/internal/types"
	"github.com/cleohq/cleo/internal/validation"
)

// Warning is one severity-tagged note surfaced by a delete preview (§4.12).
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Severity-tagged warning codes.
const (
	WarnActiveCancelled = "W_ACTIVE_CANCELLED"
	WarnBrokenDeps      = "W_BROKEN_DEPS"
	WarnCascadeDelete   = "W_CASCADE_DELETE"
	WarnManyDependents  = "W_MANY_DEPENDENTS"
)

// Preview is the dry-run report of a hard delete (§4.12): primary task,
// descendants under cascade, dependents that would lose an edge, counts by
// status, and severity-tagged warnings.
type Preview struct {
	Primary         string            `json:"primary"`
	Descendants     []string          `json:"descendants,omitempty"`
	DependentsAtRisk []string         `json:"dependentsAtRisk,omitempty"`
	CountsByStatus  map[string]int    `json:"countsByStatus"`
	Warnings        []Warning         `json:"warnings,omitempty"`
}

// PreviewDelete computes the preview without mutating anything.
func PreviewDelete(proj *types.Project, rootID string, cascade bool) (*Preview, error) {
	byID := make(map[string]*types.Task, len(proj.Tasks))
	for _, t := range proj.Tasks {
		byID[t.ID] = t
	}
	root, ok := byID[rootID]
	if !ok {
		return nil, errs.New(errs.CodeNotFound, "task %s not found", rootID)
	}
	if err := validation.NotCompleted()(root); err != nil {
		return nil, errs.AsError(err).WithFix("run the archive command instead")
	}

	p := &Preview{Primary: rootID, CountsByStatus: map[string]int{}}

	children := hierarchy.ChildrenOf(proj.Tasks)
	ids := []string{rootID}
	if cascade {
		descendants := hierarchy.CascadeSet(rootID, children)
		sort.Strings(descendants)
		p.Descendants = descendants
		ids = append(ids, descendants...)
		if len(descendants) > 0 {
			p.Warnings = append(p.Warnings, Warning{Code: WarnCascadeDelete, Message: "this will also delete all descendant tasks"})
		}
	} else if err := validation.HasNoChildren(children[rootID])(root); err != nil {
		return nil, err
	}

	deleteSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		t := byID[id]
		if t == nil {
			continue
		}
		deleteSet[id] = true
		p.CountsByStatus[string(t.Status)]++
		if t.Status == types.StatusCancelled {
			p.Warnings = append(p.Warnings, Warning{Code: WarnActiveCancelled, Message: "deleting a cancelled task discards its history permanently"})
		}
	}

	g := depgraph.Build(proj.Tasks)
	var dependents []string
	for id := range deleteSet {
		for _, edge := range g.DependedOnBy(id) {
			if !deleteSet[edge.ID] {
				dependents = append(dependents, edge.ID)
			}
		}
	}
	sort.Strings(dependents)
	dependents = dedupe(dependents)
	p.DependentsAtRisk = dependents
	if len(dependents) > 0 {
		p.Warnings = append(p.Warnings, Warning{Code: WarnBrokenDeps, Message: "these tasks depend on what would be deleted and will lose that edge"})
	}
	if len(dependents) > 5 {
		p.Warnings = append(p.Warnings, Warning{Code: WarnManyDependents, Message: "a large number of dependents would be affected"})
	}

	return p, nil
}

func dedupe(in []string) []string {
	out := in[:0]
	var last string
	first := true
	for _, v := range in {
		if first || v != last {
			out = append(out, v)
			last = v
			first = false
		}
	}
	return out
}

// Execute performs the hard delete after a preview has been accepted:
// removes the task set and strips dangling depends/relates edges from
// every surviving task.
func Execute(proj *types.Project, p *Preview) {
	deleteSet := make(map[string]bool, 1+len(p.Descendants))
	deleteSet[p.Primary] = true
	for _, id := range p.Descendants {
		deleteSet[id] = true
	}

	var remaining []*types.Task
	for _, t := range proj.Tasks {
		if deleteSet[t.ID] {
			continue
		}
		t.Depends = stripIDs(t.Depends, deleteSet)
		var relates []types.Relation
		for _, r := range t.Relates {
			if !deleteSet[r.TargetID] {
				relates = append(relates, r)
			}
		}
		t.Relates = relates
		remaining = append(remaining, t)
	}
	proj.Tasks = remaining
}

func stripIDs(ids []string, remove map[string]bool) []string {
	var out []string
	for _, id := range ids {
		if !remove[id] {
			out = append(out, id)
		}
	}
	return out
}
