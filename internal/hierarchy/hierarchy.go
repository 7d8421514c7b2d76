// Package hierarchy enforces the type hierarchy, depth cap, sibling caps,
// and reparent/cascade semantics of spec §4.6 (component 7).
package hierarchy

import (
	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/types"
)

// MaxDepth is the hard cap on epic→task→subtask nesting (spec §3.2 rule 3).
const MaxDepth = 3

// Limits mirrors the hierarchy.* config keys (§3.2 rule 4).
type Limits struct {
	MaxActiveSiblings int
	MaxSiblings       int // 0 means unbounded, see DESIGN.md Open question decisions 3
	CountDoneInLimit  bool
}

// Depth computes a task's depth by walking parentId (root = depth 1).
func Depth(id string, byID map[string]*types.Task) int {
	depth := 1
	cur := byID[id]
	for cur != nil && cur.ParentID != "" {
		depth++
		cur = byID[cur.ParentID]
	}
	return depth
}

// ImpliedType returns the type a new child must take given its parent's
// type, and whether an override is legal at that position (§4.6).
func ImpliedType(parentType types.TaskType) (implied types.TaskType, overrideAllowed bool) {
	switch parentType {
	case types.TypeEpic:
		return types.TypeTask, false
	case types.TypeTask:
		return types.TypeSubtask, false
	default:
		return "", false
	}
}

// ValidateNewChild checks depth, type legality, and sibling caps before a
// task is created under parentID (or at root if parentID == "").
func ValidateNewChild(parentID string, requestedType types.TaskType, byID map[string]*types.Task, siblings []*types.Task, limits Limits) error {
	if parentID == "" {
		if requestedType != types.TypeEpic && requestedType != types.TypeTask {
			return errs.New(errs.CodeValidation, "root tasks must be epic or task, got %s", requestedType)
		}
		return checkSiblingCaps(siblings, limits)
	}

	parent, ok := byID[parentID]
	if !ok {
		return errs.New(errs.CodeNotFound, "parent task %s not found", parentID)
	}
	if parent.Type == types.TypeSubtask {
		return errs.New(errs.CodeDepthExceeded, "subtasks cannot have children")
	}

	depth := Depth(parentID, byID) + 1
	if depth > MaxDepth {
		return errs.New(errs.CodeDepthExceeded, "creating a child of %s would exceed the max hierarchy depth of %d", parentID, MaxDepth)
	}

	implied, overrideAllowed := ImpliedType(parent.Type)
	if requestedType != "" && requestedType != implied {
		if !overrideAllowed {
			return errs.New(errs.CodeValidation, "task under a %s parent must be %s, not %s", parent.Type, implied, requestedType)
		}
	}

	return checkSiblingCaps(siblings, limits)
}

func checkSiblingCaps(siblings []*types.Task, limits Limits) error {
	active := 0
	for _, s := range siblings {
		if limits.CountDoneInLimit || s.Status != types.StatusDone {
			active++
		}
	}
	maxActive := limits.MaxActiveSiblings
	if maxActive <= 0 {
		maxActive = 8
	}
	if active >= maxActive {
		return errs.New(errs.CodeSiblingCapExceeded, "active sibling cap of %d reached", maxActive)
	}
	if limits.MaxSiblings > 0 && len(siblings) >= limits.MaxSiblings {
		return errs.New(errs.CodeSiblingCapExceeded, "sibling cap of %d reached", limits.MaxSiblings)
	}
	return nil
}

// ValidateReparent checks that moving taskID under newParentID (empty =
// demote to root) is legal: no self-parenting, no cycles, depth respected.
func ValidateReparent(taskID, newParentID string, byID map[string]*types.Task, siblings []*types.Task, limits Limits) error {
	if taskID == newParentID {
		return errs.New(errs.CodeValidation, "a task cannot be its own parent")
	}
	t, ok := byID[taskID]
	if !ok {
		return errs.New(errs.CodeNotFound, "task %s not found", taskID)
	}

	if newParentID != "" {
		// Walk up from newParentID; if we encounter taskID, this would cycle.
		cur := byID[newParentID]
		for cur != nil {
			if cur.ID == taskID {
				return errs.New(errs.CodeValidation, "reparenting %s under %s would create a cycle", taskID, newParentID)
			}
			if cur.ParentID == "" {
				break
			}
			cur = byID[cur.ParentID]
		}
	}

	return ValidateNewChild(newParentID, t.Type, byID, siblings, limits)
}

// CheckPositionVersion enforces optimistic concurrency on reorder/reparent
// (§4.6 POSITION_CONFLICT).
func CheckPositionVersion(t *types.Task, expected int) error {
	if t.PositionVersion != expected {
		return errs.New(errs.CodePositionConflict, "task %s position changed underneath you (expected version %d, have %d)", t.ID, expected, t.PositionVersion)
	}
	return nil
}

// CascadeSet performs a breadth-first traversal of parentId edges from
// rootID and returns the closed set of descendant IDs (rootID excluded),
// for delete/archive cascade (§4.6, §9 "Cascade deletes").
func CascadeSet(rootID string, childrenOf map[string][]*types.Task) []string {
	var out []string
	queue := []string{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range childrenOf[id] {
			out = append(out, child.ID)
			queue = append(queue, child.ID)
		}
	}
	return out
}

// ChildrenOf indexes tasks by parentId for CascadeSet and sibling queries.
func ChildrenOf(tasks []*types.Task) map[string][]*types.Task {
	m := make(map[string][]*types.Task)
	for _, t := range tasks {
		if t.ParentID != "" {
			m[t.ParentID] = append(m[t.ParentID], t)
		}
	}
	return m
}
