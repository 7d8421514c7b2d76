// Package doctor implements the store's diagnostic sweep (SPEC_FULL §3
// Supplemented Features), grounded in the teacher's cmd/bd/doctor checks
// but targeted at this store's own invariants: checksum integrity, orphaned
// parents, dangling dependency edges, and stale lock files.
package doctor

import (
	"os"
	"time"

	"github.com/cleohq/cleo/internal/config"
	"github.com/cleohq/cleo/internal/store"
	"github.com/cleohq/cleo/internal/types"
)

// Severity classifies a finding.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Finding is one diagnostic result.
type Finding struct {
	Check    string   `json:"check"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	TaskID   string   `json:"taskId,omitempty"`
}

// Report is the full sweep's output.
type Report struct {
	Findings []Finding `json:"findings"`
	OK       bool      `json:"ok"`
}

// Run executes every check against the store at storeDir.
func Run(storeDir string) (*Report, error) {
	r := &Report{}

	var proj types.Project
	if err := store.Read(config.TasksPath(storeDir), &proj); err != nil {
		return nil, err
	}

	checkChecksum(r, &proj)
	checkOrphanedParents(r, &proj)
	checkDanglingDepends(r, &proj)
	checkStaleLocks(r, storeDir)

	r.OK = true
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			r.OK = false
			break
		}
	}
	return r, nil
}

func checkChecksum(r *Report, proj *types.Project) {
	want, err := store.Checksum(proj.Tasks)
	if err != nil {
		r.Findings = append(r.Findings, Finding{Check: "checksum", Severity: SeverityError, Message: "failed to recompute checksum: " + err.Error()})
		return
	}
	if want != proj.Meta.Checksum {
		r.Findings = append(r.Findings, Finding{
			Check: "checksum", Severity: SeverityError,
			Message: "stored checksum does not match recomputed checksum of the task list",
		})
	}
}

func checkOrphanedParents(r *Report, proj *types.Project) {
	byID := make(map[string]bool, len(proj.Tasks))
	for _, t := range proj.Tasks {
		byID[t.ID] = true
	}
	for _, t := range proj.Tasks {
		if t.ParentID != "" && !byID[t.ParentID] {
			r.Findings = append(r.Findings, Finding{
				Check: "orphaned_parent", Severity: SeverityWarn, TaskID: t.ID,
				Message: "parentId " + t.ParentID + " does not exist",
			})
		}
	}
}

func checkDanglingDepends(r *Report, proj *types.Project) {
	byID := make(map[string]bool, len(proj.Tasks))
	for _, t := range proj.Tasks {
		byID[t.ID] = true
	}
	for _, t := range proj.Tasks {
		for _, d := range t.Depends {
			if !byID[d] {
				r.Findings = append(r.Findings, Finding{
					Check: "dangling_dependency", Severity: SeverityWarn, TaskID: t.ID,
					Message: "depends on missing task " + d,
				})
			}
		}
	}
}

// checkStaleLocks flags lock files older than 10x the configured lock timeout,
// which usually means a crashed holder left the advisory lock on disk.
func checkStaleLocks(r *Report, storeDir string) {
	candidates := []string{
		config.TasksPath(storeDir) + ".lock",
		config.ArchivePath(storeDir) + ".lock",
		config.SessionsPath(storeDir) + ".lock",
	}
	threshold := config.LockTimeout() * 10
	for _, p := range candidates {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) > threshold {
			r.Findings = append(r.Findings, Finding{
				Check: "stale_lock", Severity: SeverityWarn,
				Message: "lock file " + p + " is older than " + threshold.String() + "; a crashed process may have left it behind",
			})
		}
	}
}
