package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleohq/cleo/internal/types"
)

func TestListFiltersByStatusAndPaginates(t *testing.T) {
	tasks := []*types.Task{
		{ID: "T001", Title: "a", Status: types.StatusPending, CreatedAt: time.Unix(1, 0)},
		{ID: "T002", Title: "b", Status: types.StatusDone, CreatedAt: time.Unix(2, 0)},
		{ID: "T003", Title: "c", Status: types.StatusPending, CreatedAt: time.Unix(3, 0)},
	}
	out := List(tasks, Filter{Status: types.StatusPending}, SortCreatedAt, false, Page{})
	require.Len(t, out, 2)
	assert.Equal(t, "T001", out[0].ID)
	assert.Equal(t, "T003", out[1].ID)

	paged := List(tasks, Filter{}, SortCreatedAt, false, Page{Limit: 1, Offset: 1})
	require.Len(t, paged, 1)
	assert.Equal(t, "T002", paged[0].ID)
}

func TestListDescendingByPriority(t *testing.T) {
	tasks := []*types.Task{
		{ID: "T001", Priority: types.PriorityLow},
		{ID: "T002", Priority: types.PriorityCritical},
		{ID: "T003", Priority: types.PriorityMedium},
	}
	out := List(tasks, Filter{}, SortPriority, true, Page{})
	require.Len(t, out, 3)
	assert.Equal(t, "T002", out[0].ID)
	assert.Equal(t, "T001", out[2].ID)
}

func TestFindScoresExactIDHighest(t *testing.T) {
	tasks := []*types.Task{
		{ID: "T001", Title: "write the release notes"},
		{ID: "T002", Title: "T001"},
	}
	matches := Find(tasks, "T001")
	require.NotEmpty(t, matches)
	assert.Equal(t, "T001", matches[0].Task.ID)
	assert.Equal(t, ScoreExactID, matches[0].Score)
}

func TestFindFallsBackToFuzzyMatch(t *testing.T) {
	tasks := []*types.Task{
		{ID: "T001", Title: "release notes"},
		{ID: "T002", Title: "completely unconnected work"},
	}
	// "rls" is a subsequence of "release notes" (r, l, s) but not a
	// substring, so only the fuzzy fallback should surface it.
	matches := Find(tasks, "rls")
	require.NotEmpty(t, matches)
	assert.Equal(t, "T001", matches[0].Task.ID)
	assert.Less(t, matches[0].Score, ScoreDescriptionSubstring, "fuzzy-only hits never outrank a real substring match")
}

func TestFindReturnsNilForBlankQuery(t *testing.T) {
	tasks := []*types.Task{{ID: "T001", Title: "anything"}}
	assert.Nil(t, Find(tasks, "   "))
}

func TestStatsCountsByBucket(t *testing.T) {
	tasks := []*types.Task{
		{ID: "T001", Status: types.StatusDone, Priority: types.PriorityHigh, Phase: "design"},
		{ID: "T002", Status: types.StatusPending, Priority: types.PriorityHigh},
	}
	s := Stats(tasks)
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.ByStatus["done"])
	assert.Equal(t, 2, s.ByPriority["high"])
	assert.Equal(t, 1, s.ByPhase["design"])
}

func TestLeverageScoresTiersUnlocksMany(t *testing.T) {
	tasks := []*types.Task{
		{ID: "T001", Status: types.StatusPending, Priority: types.PriorityLow},
		{ID: "T002", Status: types.StatusPending, Priority: types.PriorityLow, Depends: []string{"T001"}},
		{ID: "T003", Status: types.StatusPending, Priority: types.PriorityLow, Depends: []string{"T001"}},
		{ID: "T004", Status: types.StatusPending, Priority: types.PriorityLow, Depends: []string{"T001"}},
	}
	scores := LeverageScores(tasks, nil)
	var t001 Leverage
	for _, s := range scores {
		if s.TaskID == "T001" {
			t001 = s
		}
	}
	assert.Equal(t, TierUnlocksMany, t001.Tier)
}
