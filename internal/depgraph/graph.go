// Package depgraph implements the Dependency Graph (spec §4.7, component
// 6): forward/reverse indices rebuilt from the canonical task list, cycle
// detection, and the wave/critical-path/blocker queries. No owning-pointer
// cycles exist in memory — both indices are flat multimaps rebuilt on
// demand (spec §9 "Cyclic structures").
package depgraph

import (
	"sort"

	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/types"
)

// Graph is a point-in-time view built from a task list snapshot. It is
// never persisted; any cache of it must be invalidated whenever the
// store's generation changes (§4.7).
type Graph struct {
	byID    map[string]*types.Task
	forward map[string]map[string]bool // task -> depends
	reverse map[string]map[string]bool // task -> dependents
}

// Build constructs forward and reverse indices from the canonical task list.
func Build(tasks []*types.Task) *Graph {
	g := &Graph{
		byID:    make(map[string]*types.Task, len(tasks)),
		forward: make(map[string]map[string]bool, len(tasks)),
		reverse: make(map[string]map[string]bool, len(tasks)),
	}
	for _, t := range tasks {
		g.byID[t.ID] = t
		if g.forward[t.ID] == nil {
			g.forward[t.ID] = make(map[string]bool)
		}
		for _, dep := range t.Depends {
			g.forward[t.ID][dep] = true
			if g.reverse[dep] == nil {
				g.reverse[dep] = make(map[string]bool)
			}
			g.reverse[dep][t.ID] = true
		}
	}
	return g
}

// WouldCycle reports whether adding edge from→to would introduce a cycle,
// detected by DFS over forward edges from `to` back to `from` (§4.7).
func (g *Graph) WouldCycle(from, to string) bool {
	if from == to {
		return true
	}
	visited := make(map[string]bool)
	var dfs func(node string) bool
	dfs = func(node string) bool {
		if node == from {
			return true
		}
		if visited[node] {
			return false
		}
		visited[node] = true
		for dep := range g.forward[node] {
			if dfs(dep) {
				return true
			}
		}
		return false
	}
	return dfs(to)
}

// AddDependency validates a new edge id → dependsOn and returns nil if it
// may be added; it does not mutate the graph itself (the task layer owns
// persistence). Returns CIRCULAR_DEPENDENCY if the edge would cycle.
func (g *Graph) AddDependency(id, dependsOn string) error {
	if id == dependsOn {
		return errs.New(errs.CodeCircularDependency, "a task cannot depend on itself")
	}
	if _, ok := g.byID[dependsOn]; !ok {
		return errs.New(errs.CodeNotFound, "dependency target %s not found", dependsOn)
	}
	if g.WouldCycle(id, dependsOn) {
		return errs.New(errs.CodeCircularDependency, "adding %s -> %s would create a cycle", id, dependsOn)
	}
	return nil
}

// satisfied reports whether a dependency is considered satisfied: done or
// cancelled count; an archived dependency counts iff it was terminal
// before archival (§4.7) — callers pass that fact via wasTerminalAtArchive.
func satisfied(t *types.Task, wasTerminalAtArchive func(id string) bool) bool {
	if t == nil {
		return false
	}
	if t.Status.IsTerminal() {
		return true
	}
	if t.Status == types.StatusArchived && wasTerminalAtArchive != nil {
		return wasTerminalAtArchive(t.ID)
	}
	return false
}

// ResolvedEdge is a dependency/dependent resolved to display fields.
type ResolvedEdge struct {
	ID     string       `json:"id"`
	Title  string       `json:"title"`
	Status types.Status `json:"status"`
}

// DependsOn returns the direct forward edges of id, resolved.
func (g *Graph) DependsOn(id string) []ResolvedEdge {
	var out []ResolvedEdge
	for dep := range g.forward[id] {
		if t, ok := g.byID[dep]; ok {
			out = append(out, ResolvedEdge{ID: t.ID, Title: t.Title, Status: t.Status})
		}
	}
	sortEdges(out)
	return out
}

// DependedOnBy returns the direct reverse edges of id, resolved.
func (g *Graph) DependedOnBy(id string) []ResolvedEdge {
	var out []ResolvedEdge
	for dep := range g.reverse[id] {
		if t, ok := g.byID[dep]; ok {
			out = append(out, ResolvedEdge{ID: t.ID, Title: t.Title, Status: t.Status})
		}
	}
	sortEdges(out)
	return out
}

func sortEdges(edges []ResolvedEdge) {
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
}

// ancestors returns every task transitively reachable by forward edges
// from id (its full upstream dependency closure).
func (g *Graph) ancestors(id string) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(n string)
	walk = func(n string) {
		for dep := range g.forward[n] {
			if !seen[dep] {
				seen[dep] = true
				out = append(out, dep)
				walk(dep)
			}
		}
	}
	walk(id)
	return out
}

// UnresolvedChain counts upstream ancestors whose status is not terminal.
func (g *Graph) UnresolvedChain(id string, wasTerminalAtArchive func(string) bool) int {
	count := 0
	for _, a := range g.ancestors(id) {
		if !satisfied(g.byID[a], wasTerminalAtArchive) {
			count++
		}
	}
	return count
}

// LeafBlockers returns ancestors whose own dependencies are all satisfied
// but whose own status is not terminal — root-cause blockers (§4.7).
func (g *Graph) LeafBlockers(id string, wasTerminalAtArchive func(string) bool) []ResolvedEdge {
	var out []ResolvedEdge
	for _, a := range g.ancestors(id) {
		t := g.byID[a]
		if t == nil || satisfied(t, wasTerminalAtArchive) {
			continue
		}
		allSatisfied := true
		for dep := range g.forward[a] {
			if !satisfied(g.byID[dep], wasTerminalAtArchive) {
				allSatisfied = false
				break
			}
		}
		if allSatisfied {
			out = append(out, ResolvedEdge{ID: t.ID, Title: t.Title, Status: t.Status})
		}
	}
	sortEdges(out)
	return out
}

// AllDepsReady reports whether every transitive forward edge of id is
// satisfied (§4.7).
func (g *Graph) AllDepsReady(id string, wasTerminalAtArchive func(string) bool) bool {
	for _, a := range g.ancestors(id) {
		if !satisfied(g.byID[a], wasTerminalAtArchive) {
			return false
		}
	}
	return true
}

// DetectCycle runs a full-graph DFS and returns the first cycle found as a
// slice of task IDs, or nil if the graph is acyclic.
func (g *Graph) DetectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.byID))
	var path []string
	var cycle []string

	var dfs func(n string) bool
	dfs = func(n string) bool {
		color[n] = gray
		path = append(path, n)
		deps := make([]string, 0, len(g.forward[n]))
		for d := range g.forward[n] {
			deps = append(deps, d)
		}
		sort.Strings(deps)
		for _, d := range deps {
			switch color[d] {
			case white:
				if dfs(d) {
					return true
				}
			case gray:
				// Found a cycle; extract the loop starting at d.
				for i, node := range path {
					if node == d {
						cycle = append([]string(nil), path[i:]...)
						cycle = append(cycle, d)
						break
					}
				}
				return true
			}
		}
		path = path[:len(path)-1]
		color[n] = black
		return false
	}

	ids := make([]string, 0, len(g.byID))
	for id := range g.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if color[id] == white {
			if dfs(id) {
				return cycle
			}
		}
	}
	return nil
}
