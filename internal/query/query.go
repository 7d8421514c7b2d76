// Package query implements the Query Engine (spec §4.13, component 13):
// lock-free list/find/show/statistics over the canonical task list, plus
// leverage scoring and tier grouping.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/cleohq/cleo/internal/depgraph"
	"github.com/cleohq/cleo/internal/types"
	"github.com/cleohq/cleo/internal/utils"
)

// Filter narrows a list query (§4.13).
type Filter struct {
	Status   types.Status
	ParentID string
	Phase    string
	Priority types.Priority
	Labels   []string
	Since    *time.Time
	Before   *time.Time
}

// Page bounds a list query's result window.
type Page struct {
	Limit  int
	Offset int
}

// SortKey names the field list results are ordered by.
type SortKey string

const (
	SortCreatedAt SortKey = "createdAt"
	SortUpdatedAt SortKey = "updatedAt"
	SortPriority  SortKey = "priority"
	SortPosition  SortKey = "position"
)

// List applies Filter, sorts by key, and paginates (§4.13). All read
// operations are lock-free.
func List(tasks []*types.Task, f Filter, key SortKey, desc bool, page Page) []*types.Task {
	var out []*types.Task
	for _, t := range tasks {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.ParentID != "" && t.ParentID != f.ParentID {
			continue
		}
		if f.Phase != "" && t.Phase != f.Phase {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		if len(f.Labels) > 0 && !hasAllLabels(t.Labels, f.Labels) {
			continue
		}
		if f.Since != nil && t.CreatedAt.Before(*f.Since) {
			continue
		}
		if f.Before != nil && t.CreatedAt.After(*f.Before) {
			continue
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		var less bool
		switch key {
		case SortUpdatedAt:
			less = out[i].UpdatedAt.Before(out[j].UpdatedAt)
		case SortPriority:
			less = out[i].Priority.Weight() < out[j].Priority.Weight()
		case SortPosition:
			less = out[i].Position < out[j].Position
		default:
			less = out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		if desc {
			return !less
		}
		return less
	})

	if page.Offset > 0 {
		if page.Offset >= len(out) {
			return nil
		}
		out = out[page.Offset:]
	}
	if page.Limit > 0 && page.Limit < len(out) {
		out = out[:page.Limit]
	}
	return out
}

func hasAllLabels(have, want []string) bool {
	set := make(map[string]bool, len(have))
	for _, l := range have {
		set[l] = true
	}
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return true
}

// Match is one scored find() hit (§4.13).
type Match struct {
	Task  *types.Task
	Score int
}

// Scoring weights, highest wins (§4.13).
const (
	ScoreExactID             = 100
	ScoreExactTitle          = 80
	ScoreIDSubstring         = 50
	ScoreTitlePrefix         = 40
	ScoreLabelSubstring      = 15
	ScoreTitleSubstring      = 20
	ScoreDescriptionSubstring = 10
)

// Find returns every task matching q with its highest-weight score,
// descending, fuzzy-matching titles with utils.FuzzyMatch as a fallback so
// near-misses still surface at the bottom of the ranking (§4.13).
func Find(tasks []*types.Task, q string) []Match {
	ql := strings.ToLower(strings.TrimSpace(q))
	if ql == "" {
		return nil
	}

	var matches []Match
	for _, t := range tasks {
		score := scoreOf(t, ql)
		if score == 0 {
			title := strings.ToLower(t.Title)
			if utils.FuzzyMatch(ql, title) {
				// Closer edit distance ranks higher among fuzzy-only hits,
				// capped so it never outranks a real substring/prefix match.
				dist := utils.ComputeDistance(ql, title)
				score = ScoreDescriptionSubstring - 1 - dist
				if score < 1 {
					score = 1
				}
			}
		}
		if score > 0 {
			matches = append(matches, Match{Task: t, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Task.ID < matches[j].Task.ID
	})
	return matches
}

func scoreOf(t *types.Task, ql string) int {
	id := strings.ToLower(t.ID)
	title := strings.ToLower(t.Title)
	desc := strings.ToLower(t.Description)

	best := 0
	raise := func(s int) {
		if s > best {
			best = s
		}
	}

	if id == ql {
		raise(ScoreExactID)
	}
	if title == ql {
		raise(ScoreExactTitle)
	}
	if strings.Contains(id, ql) {
		raise(ScoreIDSubstring)
	}
	if strings.HasPrefix(title, ql) {
		raise(ScoreTitlePrefix)
	}
	if strings.Contains(title, ql) {
		raise(ScoreTitleSubstring)
	}
	if strings.Contains(desc, ql) {
		raise(ScoreDescriptionSubstring)
	}
	for _, l := range t.Labels {
		if strings.Contains(strings.ToLower(l), ql) {
			raise(ScoreLabelSubstring)
			break
		}
	}
	return best
}

// Statistics are counts by status/priority/phase (§4.13).
type Statistics struct {
	ByStatus   map[string]int `json:"byStatus"`
	ByPriority map[string]int `json:"byPriority"`
	ByPhase    map[string]int `json:"byPhase"`
	Total      int            `json:"total"`
}

// Stats computes aggregate counts over tasks.
func Stats(tasks []*types.Task) Statistics {
	s := Statistics{ByStatus: map[string]int{}, ByPriority: map[string]int{}, ByPhase: map[string]int{}}
	for _, t := range tasks {
		s.Total++
		s.ByStatus[string(t.Status)]++
		s.ByPriority[string(t.Priority)]++
		if t.Phase != "" {
			s.ByPhase[t.Phase]++
		}
	}
	return s
}

// Tier is the leverage-scoring bucket of a task (§4.13).
type Tier int

const (
	TierUnlocksMany Tier = 1
	TierHighPriorityReady Tier = 2
	TierBlockedOrMedium Tier = 3
	TierOther Tier = 4
)

// Leverage is one task's leverage score and tier.
type Leverage struct {
	TaskID string `json:"taskId"`
	Score  int    `json:"score"`
	Tier   Tier   `json:"tier"`
}

// LeverageScores computes `unlocks_count*10 + priority_bonus` for every
// pending, active or blocked task and assigns its tier (§4.13).
func LeverageScores(tasks []*types.Task, wasTerminalAtArchive func(string) bool) []Leverage {
	g := depgraph.Build(tasks)
	out := make([]Leverage, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == types.StatusDone || t.Status == types.StatusCancelled || t.Status == types.StatusArchived {
			continue
		}
		unlocks := len(g.DependedOnBy(t.ID))
		score := unlocks*10 + t.Priority.Weight()

		var tier Tier
		switch {
		case unlocks >= 3:
			tier = TierUnlocksMany
		case (t.Priority == types.PriorityCritical || t.Priority == types.PriorityHigh) && g.AllDepsReady(t.ID, wasTerminalAtArchive):
			tier = TierHighPriorityReady
		case t.Status == types.StatusBlocked || t.Priority == types.PriorityMedium:
			tier = TierBlockedOrMedium
		default:
			tier = TierOther
		}

		out = append(out, Leverage{TaskID: t.ID, Score: score, Tier: tier})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].TaskID < out[j].TaskID
	})
	return out
}
