// Package archive implements the Archive Engine (spec §4.12 Archive,
// component 12): moving tasks (and descendants) between the active and
// cold stores atomically, and restoring them back.
package archive

import (
	"time"

	"github.com/cleohq/cleo/internal/config"
	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/hierarchy"
	"github.com/cleohq/cleo/internal/store"
	"github.com/cleohq/cleo/internal/types"
)

// Move archives rootID (and its descendants, if cascade) from proj into
// arc, stamping each moved task's _archive block. Both documents are
// written atomically under a multi-lock held by the caller (§4.12).
func Move(proj *types.Project, arc *types.Archive, rootID string, cascade bool, reason string, now time.Time) ([]string, error) {
	byID := make(map[string]*types.Task, len(proj.Tasks))
	for _, t := range proj.Tasks {
		byID[t.ID] = t
	}
	root, ok := byID[rootID]
	if !ok {
		return nil, errs.New(errs.CodeNotFound, "task %s not found", rootID)
	}

	ids := []string{rootID}
	if cascade {
		ids = append(ids, hierarchy.CascadeSet(rootID, hierarchy.ChildrenOf(proj.Tasks))...)
	} else if len(hierarchy.ChildrenOf(proj.Tasks)[rootID]) > 0 {
		return nil, errs.New(errs.CodeHasChildren, "task %s has children; archive with cascade or detach them first", rootID)
	}
	_ = root

	moveSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		moveSet[id] = true
	}

	var remaining []*types.Task
	for _, t := range proj.Tasks {
		if moveSet[t.ID] {
			c := t.Clone()
			c.Archive = &types.ArchiveInfo{ArchivedAt: now, Reason: reason}
			arc.ArchivedTasks = append(arc.ArchivedTasks, c)
		} else {
			remaining = append(remaining, t)
		}
	}
	proj.Tasks = remaining
	proj.LastUpdated = now
	return ids, nil
}

// Restore moves rootID (and any descendants archived alongside it, if
// cascade) back from arc into proj, re-checking ID uniqueness against the
// active store (§4.12).
func Restore(proj *types.Project, arc *types.Archive, rootID string, cascade bool, now time.Time) ([]string, error) {
	archivedByID := make(map[string]*types.Task, len(arc.ArchivedTasks))
	for _, t := range arc.ArchivedTasks {
		archivedByID[t.ID] = t
	}
	root, ok := archivedByID[rootID]
	if !ok {
		return nil, errs.New(errs.CodeNotFound, "archived task %s not found", rootID)
	}

	ids := []string{rootID}
	if cascade {
		ids = append(ids, hierarchy.CascadeSet(rootID, hierarchy.ChildrenOf(arc.ArchivedTasks))...)
	}

	activeByID := make(map[string]bool, len(proj.Tasks))
	for _, t := range proj.Tasks {
		activeByID[t.ID] = true
	}
	for _, id := range ids {
		if activeByID[id] {
			return nil, errs.New(errs.CodeAlreadyExists, "task %s already exists in the active store", id)
		}
	}
	_ = root

	moveSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		moveSet[id] = true
	}

	var remainingArchive []*types.Task
	for _, t := range arc.ArchivedTasks {
		if moveSet[t.ID] {
			c := t.Clone()
			c.Archive = nil
			proj.Tasks = append(proj.Tasks, c)
		} else {
			remainingArchive = append(remainingArchive, t)
		}
	}
	arc.ArchivedTasks = remainingArchive
	proj.LastUpdated = now
	return ids, nil
}

// Paths returns the active/archive document paths for a store directory,
// in the lock order the multi-lock protocol requires.
func Paths(storeDir string) (tasksPath, archivePath string) {
	return config.TasksPath(storeDir), config.ArchivePath(storeDir)
}

// Load reads both documents ahead of a Move/Restore call.
func Load(storeDir string) (*types.Project, *types.Archive, error) {
	var proj types.Project
	if err := store.Read(config.TasksPath(storeDir), &proj); err != nil {
		return nil, nil, err
	}
	var arc types.Archive
	if err := store.Read(config.ArchivePath(storeDir), &arc); err != nil {
		if errs.AsError(err).Code != errs.CodeNotFound {
			return nil, nil, err
		}
		arc = types.Archive{}
	}
	return &proj, &arc, nil
}

// Save writes both documents atomically, recomputing checksums and bumping
// the generation counter (§3.2 rule 9).
func Save(storeDir string, proj *types.Project, arc *types.Archive) error {
	proj.Meta.Generation++
	checksum, err := store.Checksum(proj.Tasks)
	if err != nil {
		return errs.Wrap(errs.CodeInternal, err, "checksumming tasks")
	}
	proj.Meta.Checksum = checksum
	if err := store.WriteAtomic(config.TasksPath(storeDir), proj); err != nil {
		return err
	}

	arc.Meta.Generation++
	archiveChecksum, err := store.Checksum(arc.ArchivedTasks)
	if err != nil {
		return errs.Wrap(errs.CodeInternal, err, "checksumming archive")
	}
	arc.Meta.Checksum = archiveChecksum
	return store.WriteAtomic(config.ArchivePath(storeDir), arc)
}
