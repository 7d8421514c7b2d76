package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleohq/cleo/internal/config"
	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/query"
	"github.com/cleohq/cleo/internal/store"
	"github.com/cleohq/cleo/internal/types"
)

var queryCmd = &cobra.Command{
	Use:     "query",
	GroupID: "query",
	Short:   "List, find, and summarise tasks",
}

// loadProject reads the project document with a checksum check (§4.1 Read
// safety), returning any non-fatal checksum-mismatch warning alongside it.
func loadProject() (*types.Project, string, error) {
	return store.ReadProjectChecked(config.TasksPath(config.StoreDir()))
}

var queryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks with filters, sort, and pagination",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, warning, err := loadProject()
		if err != nil {
			return emit(cmd, "query.list", nil, "", err)
		}

		f := query.Filter{
			Status:   types.Status(mustFlag(cmd, "status")),
			ParentID: mustFlag(cmd, "parent"),
			Phase:    mustFlag(cmd, "phase"),
			Priority: types.Priority(mustFlag(cmd, "priority")),
		}
		if labels := mustFlag(cmd, "labels"); labels != "" {
			f.Labels = strings.Split(labels, ",")
		}
		if since := mustFlag(cmd, "since"); since != "" {
			t, err := query.ParseSince(since, time.Now().UTC())
			if err != nil {
				return emit(cmd, "query.list", nil, "", err)
			}
			f.Since = t
		}
		if before := mustFlag(cmd, "before"); before != "" {
			t, err := query.ParseSince(before, time.Now().UTC())
			if err != nil {
				return emit(cmd, "query.list", nil, "", err)
			}
			f.Before = t
		}

		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		desc, _ := cmd.Flags().GetBool("desc")
		sortKey := query.SortKey(mustFlag(cmd, "sort"))

		out := query.List(proj.Tasks, f, sortKey, desc, query.Page{Limit: limit, Offset: offset})
		return emit(cmd, "query.list", out, "", nil, warningSlice(warning)...)
	},
}

var queryFindCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Fuzzy-score tasks by id, title, label, and description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, warning, err := loadProject()
		if err != nil {
			return emit(cmd, "query.find", nil, "", err)
		}
		matches := query.Find(proj.Tasks, args[0])
		return emit(cmd, "query.find", matches, "", nil, warningSlice(warning)...)
	},
}

var queryShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, warning, err := loadProject()
		if err != nil {
			return emit(cmd, "query.show", nil, "", err)
		}
		for _, t := range proj.Tasks {
			if t.ID == args[0] {
				return emit(cmd, "query.show", t, "", nil, warningSlice(warning)...)
			}
		}
		return emit(cmd, "query.show", nil, "", errs.New(errs.CodeNotFound, "task %s not found", args[0]))
	},
}

var queryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise task counts by status, priority, and phase",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, warning, err := loadProject()
		if err != nil {
			return emit(cmd, "query.stats", nil, "", err)
		}
		return emit(cmd, "query.stats", query.Stats(proj.Tasks), "", nil, warningSlice(warning)...)
	},
}

var queryLeverageCmd = &cobra.Command{
	Use:   "leverage",
	Short: "Rank pending/active/blocked tasks by unlock leverage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, warning, err := loadProject()
		if err != nil {
			return emit(cmd, "query.leverage", nil, "", err)
		}
		scores := query.LeverageScores(proj.Tasks, func(string) bool { return false })
		return emit(cmd, "query.leverage", scores, "", nil, warningSlice(warning)...)
	},
}

func mustFlag(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

// warningSlice wraps a single optional warning string (empty means none) as
// the variadic warnings argument emit expects.
func warningSlice(warning string) []string {
	if warning == "" {
		return nil
	}
	return []string{warning}
}

func init() {
	queryListCmd.Flags().String("status", "", "filter by status")
	queryListCmd.Flags().String("parent", "", "filter by parent id")
	queryListCmd.Flags().String("phase", "", "filter by phase")
	queryListCmd.Flags().String("priority", "", "filter by priority")
	queryListCmd.Flags().String("labels", "", "comma-separated labels, all required")
	queryListCmd.Flags().String("since", "", "natural-language lower bound on createdAt")
	queryListCmd.Flags().String("before", "", "natural-language upper bound on createdAt")
	queryListCmd.Flags().String("sort", "createdAt", "sort key: createdAt|updatedAt|priority|position")
	queryListCmd.Flags().Bool("desc", false, "sort descending")
	queryListCmd.Flags().Int("limit", 0, "max results (0 = unbounded)")
	queryListCmd.Flags().Int("offset", 0, "skip this many results")

	queryCmd.AddCommand(queryListCmd, queryFindCmd, queryShowCmd, queryStatsCmd, queryLeverageCmd)
	rootCmd.AddCommand(queryCmd)
}
