package sync

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/types"
)

// ExportYAML writes every task as a single human-editable YAML document,
// sorted by ID, for the operator who wants to bulk-edit tasks in a text
// editor rather than script against the newline-delimited JSON format.
func ExportYAML(tasks []*types.Task, path string) error {
	sorted := append([]*types.Task(nil), tasks...)
	sortByID(sorted)

	// Dereference so the document holds task bodies, not pointer addresses.
	flat := make([]types.Task, len(sorted))
	for i, t := range sorted {
		flat[i] = *t
	}

	out, err := yaml.Marshal(flat)
	if err != nil {
		return errs.Wrap(errs.CodeInternal, err, "marshalling tasks to yaml")
	}
	if err := os.WriteFile(path, out, 0644); err != nil { // nolint:gosec // human-editable export
		return errs.Wrap(errs.CodeInternal, err, "writing yaml export file %s", path)
	}
	return nil
}

// ImportYAML reads a document written by ExportYAML and applies it to tasks
// per mode, sharing mergeRecords' validation and upsert logic with the
// JSONL import path.
func ImportYAML(tasks []*types.Task, path string, mode Mode, now time.Time) ([]*types.Task, Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, Result{}, errs.Wrap(errs.CodeInternal, err, "opening yaml import file %s", path)
	}

	var records []types.Task
	if err := yaml.Unmarshal(raw, &records); err != nil {
		return nil, Result{}, errs.Wrap(errs.CodeInternal, err, "decoding yaml import file %s", path)
	}

	return mergeRecords(tasks, mode, records, now)
}
