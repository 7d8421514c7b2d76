// Package sync implements the store's JSONL export/import round trip
// (SPEC_FULL §3 Supplemented Features), one task per line, grounded on the
// teacher's git-sync export/import idiom but trimmed to this store's single
// JSON document instead of a SQLite-backed issue tracker.
package sync

import (
	"bufio"
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/schema"
	"github.com/cleohq/cleo/internal/types"
)

// Export writes every task as one JSON object per line to path, sorted by
// ID for diff-friendly output.
func Export(tasks []*types.Task, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.CodeInternal, err, "creating export file %s", path)
	}
	defer f.Close()

	sorted := append([]*types.Task(nil), tasks...)
	sortByID(sorted)

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	for _, t := range sorted {
		if err := enc.Encode(t); err != nil {
			return errs.Wrap(errs.CodeInternal, err, "encoding task %s", t.ID)
		}
	}
	return f.Sync()
}

// Mode controls how imported records interact with the existing task set.
type Mode string

const (
	// ModeMerge upserts by ID: new IDs are appended, existing IDs are
	// replaced wholesale by the imported record.
	ModeMerge Mode = "merge"
	// ModeReplace discards every existing task and loads only what path contains.
	ModeReplace Mode = "replace"
)

// Result summarises an import's effect.
type Result struct {
	Added     []string `json:"added"`
	Replaced  []string `json:"replaced"`
	Skipped   []string `json:"skipped"`
}

// Import reads one JSON task object per line from path and applies it to
// tasks per mode, validating every record against the current schema before
// accepting it. A record that fails validation is skipped, not fatal.
func Import(tasks []*types.Task, path string, mode Mode, now time.Time) ([]*types.Task, Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Result{}, errs.Wrap(errs.CodeInternal, err, "opening import file %s", path)
	}
	defer f.Close()

	var records []types.Task
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var t types.Task
		if err := json.Unmarshal(line, &t); err != nil {
			return nil, Result{}, errs.Wrap(errs.CodeInternal, err, "decoding import line")
		}
		records = append(records, t)
	}
	if err := sc.Err(); err != nil {
		return nil, Result{}, errs.Wrap(errs.CodeInternal, err, "scanning import file %s", path)
	}

	return mergeRecords(tasks, mode, records, now)
}

// mergeRecords applies decoded task records onto tasks per mode, validating
// each against the current schema before accepting it. A record that fails
// validation is skipped, not fatal. Shared by the JSONL (Import) and YAML
// (ImportYAML) formats, which differ only in how records are decoded off disk.
func mergeRecords(tasks []*types.Task, mode Mode, records []types.Task, now time.Time) ([]*types.Task, Result, error) {
	byID := make(map[string]*types.Task, len(tasks))
	var order []string
	if mode == ModeMerge {
		for _, t := range tasks {
			byID[t.ID] = t
			order = append(order, t.ID)
		}
	}

	var res Result
	for _, t := range records {
		if err := schema.ValidateTask(&t, now); err != nil {
			res.Skipped = append(res.Skipped, t.ID)
			continue
		}
		if _, exists := byID[t.ID]; exists {
			res.Replaced = append(res.Replaced, t.ID)
		} else {
			res.Added = append(res.Added, t.ID)
			order = append(order, t.ID)
		}
		tc := t
		byID[t.ID] = &tc
	}

	out := make([]*types.Task, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out, res, nil
}

func sortByID(tasks []*types.Task) {
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
}
