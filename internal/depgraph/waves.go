package depgraph

import (
	"sort"

	"github.com/cleohq/cleo/internal/types"
)

// depthOf returns the longest-path depth of id over forward edges (the
// length of its longest dependency chain), memoised in memo.
func (g *Graph) depthOf(id string, memo map[string]int) int {
	if d, ok := memo[id]; ok {
		return d
	}
	memo[id] = 0 // break cycles defensively; callers should run DetectCycle first
	max := 0
	for dep := range g.forward[id] {
		if d := g.depthOf(dep, memo) + 1; d > max {
			max = d
		}
	}
	memo[id] = max
	return max
}

// Wave is one level set of the dependency DAG — tasks with equal
// longest-path depth (§4.7, GLOSSARY).
type Wave struct {
	Depth int            `json:"depth"`
	Tasks []ResolvedEdge `json:"tasks"`
}

// PlanWaves partitions the given pending tasks into level sets by
// longest-path depth, tie-broken by priority then creation time.
func (g *Graph) PlanWaves(pending []*types.Task) []Wave {
	memo := make(map[string]int)
	byDepth := make(map[int][]*types.Task)
	for _, t := range pending {
		d := g.depthOf(t.ID, memo)
		byDepth[d] = append(byDepth[d], t)
	}

	depths := make([]int, 0, len(byDepth))
	for d := range byDepth {
		depths = append(depths, d)
	}
	sort.Ints(depths)

	waves := make([]Wave, 0, len(depths))
	for _, d := range depths {
		tasks := byDepth[d]
		sort.Slice(tasks, func(i, j int) bool {
			return lessByPriorityThenAge(tasks[i], tasks[j])
		})
		edges := make([]ResolvedEdge, 0, len(tasks))
		for _, t := range tasks {
			edges = append(edges, ResolvedEdge{ID: t.ID, Title: t.Title, Status: t.Status})
		}
		waves = append(waves, Wave{Depth: d, Tasks: edges})
	}
	return waves
}

func lessByPriorityThenAge(a, b *types.Task) bool {
	if a.Priority.Weight() != b.Priority.Weight() {
		return a.Priority.Weight() > b.Priority.Weight()
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// CriticalPath returns the longest chain of non-terminal tasks by node
// count; ties are broken by priority mass then age (§4.7).
func (g *Graph) CriticalPath(nonTerminal []*types.Task) []ResolvedEdge {
	nonTerminalSet := make(map[string]bool, len(nonTerminal))
	byID := make(map[string]*types.Task, len(nonTerminal))
	for _, t := range nonTerminal {
		nonTerminalSet[t.ID] = true
		byID[t.ID] = t
	}

	memoChain := make(map[string][]string)
	var longestChain func(id string) []string
	longestChain = func(id string) []string {
		if c, ok := memoChain[id]; ok {
			return c
		}
		memoChain[id] = []string{id} // break cycles defensively
		best := []string{id}
		bestMass, bestAge := priorityMass(byID[id]), ageOf(byID[id])
		for dep := range g.forward[id] {
			if !nonTerminalSet[dep] {
				continue
			}
			candidate := append([]string{id}, longestChain(dep)...)
			candMass := bestMass + priorityMass(byID[dep])
			if len(candidate) > len(best) ||
				(len(candidate) == len(best) && candMass > bestMass) ||
				(len(candidate) == len(best) && candMass == bestMass && ageOf(byID[dep]) < bestAge) {
				best = candidate
				bestMass = candMass
				if byID[dep] != nil {
					bestAge = ageOf(byID[dep])
				}
			}
		}
		memoChain[id] = best
		return best
	}

	var overall []string
	for id := range nonTerminalSet {
		c := longestChain(id)
		if len(c) > len(overall) {
			overall = c
		}
	}

	out := make([]ResolvedEdge, 0, len(overall))
	for _, id := range overall {
		if t := byID[id]; t != nil {
			out = append(out, ResolvedEdge{ID: t.ID, Title: t.Title, Status: t.Status})
		}
	}
	return out
}

func priorityMass(t *types.Task) int {
	if t == nil {
		return 0
	}
	return t.Priority.Weight()
}

func ageOf(t *types.Task) int64 {
	if t == nil {
		return 0
	}
	return t.CreatedAt.UnixNano()
}
