// Package engine is the Orchestration Surface (spec component 15): it maps
// named operations onto the entity/graph/lifecycle packages, enforces
// session/lifecycle gates, and emits exactly one envelope per invocation
// (§5 data flow: caller → orchestration → path/config → validator+lock+
// store → entity/graph/lifecycle updates → audit+backup+checkpoint →
// envelope out).
package engine

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/cleohq/cleo/internal/archive"
	"github.com/cleohq/cleo/internal/audit"
	"github.com/cleohq/cleo/internal/backup"
	"github.com/cleohq/cleo/internal/checkpoint"
	"github.com/cleohq/cleo/internal/config"
	"github.com/cleohq/cleo/internal/depgraph"
	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/hierarchy"
	"github.com/cleohq/cleo/internal/hooks"
	"github.com/cleohq/cleo/internal/idgen"
	"github.com/cleohq/cleo/internal/lifecycle"
	"github.com/cleohq/cleo/internal/schema"
	"github.com/cleohq/cleo/internal/session"
	"github.com/cleohq/cleo/internal/store"
	"github.com/cleohq/cleo/internal/task"
	"github.com/cleohq/cleo/internal/types"
	"github.com/cleohq/cleo/internal/validation"
)

// Engine binds a store directory and its resolved config/hooks/session
// policy for a single invocation.
type Engine struct {
	StoreDir string
	Actor    string
	Now      func() time.Time

	limits      hierarchy.Limits
	sessionOpts session.Options
	hookRunner  *hooks.Runner
	rotation    backup.RotationLimits
	warnings    []string
}

// Warnings returns the non-fatal warnings accumulated by this Engine since
// construction — failed best-effort backups/checkpoints, and checksum
// mismatches that survived a retry (§4.11). Callers emitting a response
// envelope for this invocation should attach these.
func (e *Engine) Warnings() []string { return e.warnings }

func (e *Engine) warn(msg string) {
	if msg != "" {
		e.warnings = append(e.warnings, msg)
	}
}

// New constructs an Engine reading its policy from the resolved config.
func New(storeDir, actor string) *Engine {
	return &Engine{
		StoreDir: storeDir,
		Actor:    actor,
		Now:      func() time.Time { return time.Now().UTC() },
		limits: hierarchy.Limits{
			MaxActiveSiblings: config.GetInt("hierarchy.max-active-siblings"),
			MaxSiblings:       config.GetInt("hierarchy.max-siblings"),
			CountDoneInLimit:  config.GetBool("hierarchy.count-done-in-limit"),
		},
		sessionOpts: session.Options{
			MultiSession: config.GetBool("multi-session"),
			RequireNotes: config.GetBool("require-notes"),
		},
		hookRunner: hooks.NewRunner(filepath.Join(storeDir, "hooks")),
		rotation: backup.RotationLimits{
			Operational: config.GetInt("backup.operational-rotate"),
			Safety:      config.GetInt("backup.safety-rotate"),
		},
	}
}

func (e *Engine) prov(sessionID string) task.Provenance {
	return task.Provenance{Actor: e.Actor, SessionID: sessionID}
}

func (e *Engine) lockTimeout() time.Duration {
	return config.LockTimeout()
}

// loadProject reads the active store document without locking, validating
// its checksum against a retry-then-warn policy (§4.1 Read safety).
func (e *Engine) loadProject() (*types.Project, error) {
	proj, warning, err := store.ReadProjectChecked(config.TasksPath(e.StoreDir))
	if err != nil {
		return nil, err
	}
	e.warn(warning)
	return proj, nil
}

// archivedTaskIDs returns the set of task ids currently in cold storage, so
// fresh id allocation can be checked unique against them too (§3.2 rule 1).
// A missing archive document is not an error — it just means nothing's been
// archived yet.
func archivedTaskIDs(storeDir string) (map[string]bool, error) {
	var arc types.Archive
	if err := store.Read(config.ArchivePath(storeDir), &arc); err != nil {
		if store.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	ids := make(map[string]bool, len(arc.ArchivedTasks))
	for _, t := range arc.ArchivedTasks {
		ids[t.ID] = true
	}
	return ids, nil
}

// commit stages an operational backup and a checkpoint before writing the
// task document, then appends one audit entry after a successful write
// (§5, §4.10, §4.11, §4.12 component 12). fn reports the before/after
// snapshots of whatever task it mutated so commit can log them without
// any caller-side variable needing to outlive the closure.
func (e *Engine) commit(action string, sessionID string, fn func(*types.Project) (before, after *types.Task, err error)) error {
	now := e.Now()
	return store.WithLock(config.TasksPath(e.StoreDir), e.lockTimeout(), func() error {
		proj, err := e.loadProject()
		if err != nil {
			return err
		}

		if _, err := backup.Take(e.StoreDir, backup.KindOperational, config.TasksPath(e.StoreDir), e.rotation, now); err != nil {
			// Best-effort: operational backup failure does not block the
			// commit, but it is surfaced as an envelope warning (§4.11).
			e.warn(fmt.Sprintf("operational backup failed: %v", err))
		}
		e.warn(checkpoint.TryStage(config.CheckpointDir(e.StoreDir), action, map[string]string{
			"tasks.json": config.TasksPath(e.StoreDir),
		}, now))

		before, after, err := fn(proj)
		if err != nil {
			return err
		}

		proj.LastUpdated = now
		proj.Meta.Generation++
		checksum, err := store.Checksum(proj.Tasks)
		if err != nil {
			return errs.Wrap(errs.CodeInternal, err, "checksumming tasks")
		}
		proj.Meta.Checksum = checksum

		if err := store.WriteAtomic(config.TasksPath(e.StoreDir), proj); err != nil {
			return err
		}

		var taskID string
		if after != nil {
			taskID = after.ID
		} else if before != nil {
			taskID = before.ID
		}
		return audit.Append(e.StoreDir, audit.Entry{
			At: now, Action: action, TaskID: taskID, SessionID: sessionID, Actor: e.Actor,
			Before: before, After: after,
		})
	})
}

// CreateTask creates a new task under parentID (root if empty), enforcing
// hierarchy depth/sibling caps and schema validation (§4.4, §4.6).
func (e *Engine) CreateTask(parentID, title, description string, typ types.TaskType, sessionID string) (*types.Task, error) {
	now := e.Now()
	var created *types.Task
	err := e.commit("task.create", sessionID, func(proj *types.Project) (before, after *types.Task, err error) {
		byID := make(map[string]*types.Task, len(proj.Tasks))
		var siblings []*types.Task
		for _, t := range proj.Tasks {
			byID[t.ID] = t
			if t.ParentID == parentID {
				siblings = append(siblings, t)
			}
		}

		if err := hierarchy.ValidateNewChild(parentID, typ, byID, siblings, e.limits); err != nil {
			return nil, nil, err
		}

		// IDs must be unique across the active store and the archive (§3.2
		// rule 1), so a fresh id also has to dodge anything already archived.
		archivedIDs, err := archivedTaskIDs(e.StoreDir)
		if err != nil {
			return nil, nil, err
		}
		exists := func(id string) bool { return byID[id] != nil || archivedIDs[id] }
		id := idgen.EnsureUnique(&proj.Meta.SequenceCursor, exists)

		t := task.New(id, title, description, typ, parentID, e.prov(sessionID), now)
		if err := schema.ValidateTask(t, now); err != nil {
			return nil, nil, err
		}
		proj.Tasks = append(proj.Tasks, t)
		created = t
		return nil, t, nil
	})
	if err != nil {
		return nil, err
	}
	e.hookRunner.Run(hooks.EventCreate, created)
	return created, nil
}

// Transition moves a task to a new status, applying §4.5 side effects.
func (e *Engine) Transition(id string, to types.Status, opts task.TransitionOpts, sessionID string) (*types.Task, error) {
	now := e.Now()
	var after *types.Task
	err := e.commit("task.transition", sessionID, func(proj *types.Project) (before, aft *types.Task, err error) {
		idx, t := findTask(proj.Tasks, id)
		if t == nil {
			return nil, nil, errs.New(errs.CodeNotFound, "task %s not found", id)
		}
		if to == types.StatusDone {
			g := depgraph.Build(proj.Tasks)
			if !g.AllDepsReady(id, nil) {
				return nil, nil, errs.New(errs.CodeDependencyError, "task %s has unmet dependencies", id).
					WithFix("complete its dependencies first, or check task.depends for the blocker")
			}
		}
		before = t.Clone()
		updated, err := task.Transition(t, to, opts, e.prov(sessionID), now)
		if err != nil {
			return nil, nil, err
		}
		proj.Tasks[idx] = updated
		after = updated
		return before, updated, nil
	})
	if err != nil {
		return nil, err
	}
	e.hookRunner.Run(hooks.EventStatusChange, after)
	if to.IsTerminal() {
		e.hookRunner.Run(hooks.EventClose, after)
	}
	return after, nil
}

// AddDependency records a depends edge after cycle/self-dependency checks.
func (e *Engine) AddDependency(id, dependsOn, sessionID string) (*types.Task, error) {
	now := e.Now()
	var after *types.Task
	err := e.commit("task.add_dependency", sessionID, func(proj *types.Project) (before, aft *types.Task, err error) {
		g := depgraph.Build(proj.Tasks)
		if err := g.AddDependency(id, dependsOn); err != nil {
			return nil, nil, err
		}
		idx, t := findTask(proj.Tasks, id)
		if err := validation.Chain(validation.Exists(id), validation.NotArchived())(t); err != nil {
			return nil, nil, err
		}
		before = t.Clone()
		c := t.Clone()
		for _, d := range c.Depends {
			if d == dependsOn {
				return nil, nil, errs.New(errs.CodeNoChange, "task %s already depends on %s", id, dependsOn)
			}
		}
		c.Depends = append(c.Depends, dependsOn)
		c.UpdatedAt = now
		if e.Actor != "" {
			c.ModifiedBy = e.Actor
		}
		proj.Tasks[idx] = c
		after = c
		return before, c, nil
	})
	return after, err
}

// Reparent moves a task under a new parent (or to root), enforcing the
// position-version optimistic-concurrency check and hierarchy rules.
func (e *Engine) Reparent(id, newParentID string, expectedPositionVersion int, sessionID string) (*types.Task, error) {
	now := e.Now()
	var after *types.Task
	err := e.commit("task.reparent", sessionID, func(proj *types.Project) (before, aft *types.Task, err error) {
		idx, t := findTask(proj.Tasks, id)
		if err := validation.Chain(validation.Exists(id), validation.NotArchived())(t); err != nil {
			return nil, nil, err
		}
		if err := hierarchy.CheckPositionVersion(t, expectedPositionVersion); err != nil {
			return nil, nil, err
		}

		byID := make(map[string]*types.Task, len(proj.Tasks))
		var siblings []*types.Task
		for _, other := range proj.Tasks {
			byID[other.ID] = other
			if other.ID != id && other.ParentID == newParentID {
				siblings = append(siblings, other)
			}
		}
		if err := hierarchy.ValidateReparent(id, newParentID, byID, siblings, e.limits); err != nil {
			return nil, nil, err
		}

		before = t.Clone()
		c := t.Clone()
		c.ParentID = newParentID
		c.PositionVersion++
		c.UpdatedAt = now
		if e.Actor != "" {
			c.ModifiedBy = e.Actor
		}
		proj.Tasks[idx] = c
		after = c
		return before, c, nil
	})
	return after, err
}

// Archive moves id (and descendants, if cascade) into the cold store under
// a multi-lock across both documents (§4.12).
func (e *Engine) Archive(id string, cascade bool, reason, sessionID string) ([]string, error) {
	now := e.Now()
	var moved []string
	err := store.WithMultiLock([]string{config.TasksPath(e.StoreDir), config.ArchivePath(e.StoreDir)}, e.lockTimeout(), func() error {
		proj, arc, err := archive.Load(e.StoreDir)
		if err != nil {
			return err
		}
		moved, err = archive.Move(proj, arc, id, cascade, reason, now)
		if err != nil {
			return err
		}
		if err := archive.Save(e.StoreDir, proj, arc); err != nil {
			return err
		}
		return audit.Append(e.StoreDir, audit.Entry{
			At: now, Action: "task.archive", TaskID: id, SessionID: sessionID, Actor: e.Actor,
			Details: map[string]any{"moved": moved, "reason": reason},
		})
	})
	return moved, err
}

// Restore reverses Archive, re-checking ID uniqueness against the active
// store (§4.12).
func (e *Engine) Restore(id string, cascade bool, sessionID string) ([]string, error) {
	now := e.Now()
	var moved []string
	err := store.WithMultiLock([]string{config.TasksPath(e.StoreDir), config.ArchivePath(e.StoreDir)}, e.lockTimeout(), func() error {
		proj, arc, err := archive.Load(e.StoreDir)
		if err != nil {
			return err
		}
		moved, err = archive.Restore(proj, arc, id, cascade, now)
		if err != nil {
			return err
		}
		if err := archive.Save(e.StoreDir, proj, arc); err != nil {
			return err
		}
		return audit.Append(e.StoreDir, audit.Entry{
			At: now, Action: "task.restore", TaskID: id, SessionID: sessionID, Actor: e.Actor,
			Details: map[string]any{"moved": moved},
		})
	})
	return moved, err
}

// PreviewDelete runs the read-only delete preview (§4.12); it takes no lock.
func (e *Engine) PreviewDelete(id string, cascade bool) (*archive.Preview, error) {
	proj, err := e.loadProject()
	if err != nil {
		return nil, err
	}
	return archive.PreviewDelete(proj, id, cascade)
}

// ExecuteDelete performs the hard delete after a preview has been accepted.
// Non-interactive callers must pass force=true (§4.12).
func (e *Engine) ExecuteDelete(p *archive.Preview, force bool, sessionID string) error {
	if !force {
		return errs.New(errs.CodeValidation, "delete requires explicit confirmation").
			WithFix("pass --force for non-interactive execution")
	}
	now := e.Now()
	return store.WithLock(config.TasksPath(e.StoreDir), e.lockTimeout(), func() error {
		proj, err := e.loadProject()
		if err != nil {
			return err
		}
		if _, err := backup.Take(e.StoreDir, backup.KindSafety, config.TasksPath(e.StoreDir), e.rotation, now); err != nil {
			e.warn(fmt.Sprintf("safety backup failed: %v", err))
		}
		archive.Execute(proj, p)
		proj.LastUpdated = now
		proj.Meta.Generation++
		checksum, err := store.Checksum(proj.Tasks)
		if err != nil {
			return errs.Wrap(errs.CodeInternal, err, "checksumming tasks")
		}
		proj.Meta.Checksum = checksum
		if err := store.WriteAtomic(config.TasksPath(e.StoreDir), proj); err != nil {
			return err
		}
		return audit.Append(e.StoreDir, audit.Entry{
			At: now, Action: "task.delete", TaskID: p.Primary, SessionID: sessionID, Actor: e.Actor,
			Details: map[string]any{"descendants": p.Descendants},
		})
	})
}

// loadSessions reads the sessions document without locking.
func (e *Engine) loadSessions() (*types.SessionStore, error) {
	var s types.SessionStore
	if err := store.Read(config.SessionsPath(e.StoreDir), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// StartSession opens a new session, enforcing the primary-session
// singleton unless multi-session mode is enabled (§4.9). model, when
// non-empty, is recorded as typed agent provenance on the audit entry.
func (e *Engine) StartSession(scope, agent, terminalBinding, model string) (*types.Session, error) {
	now := e.Now()
	var created *types.Session
	err := store.WithLock(config.SessionsPath(e.StoreDir), e.lockTimeout(), func() error {
		s, err := e.loadSessions()
		if err != nil {
			return err
		}
		created, err = session.Start(s, scope, agent, terminalBinding, e.sessionOpts, now)
		if err != nil {
			return err
		}
		if err := store.WriteAtomic(config.SessionsPath(e.StoreDir), s); err != nil {
			return err
		}
		entry := audit.Entry{At: now, Action: "session.start", SessionID: created.ID, Actor: e.Actor}
		if model != "" {
			entry = entry.WithAgent(audit.AgentProvenance{Model: anthropic.Model(model)})
		}
		return audit.Append(e.StoreDir, entry)
	})
	return created, err
}

// EndSession closes an open session, requiring a closing note when the
// require-notes policy is set.
func (e *Engine) EndSession(id, note string) error {
	now := e.Now()
	return store.WithLock(config.SessionsPath(e.StoreDir), e.lockTimeout(), func() error {
		s, err := e.loadSessions()
		if err != nil {
			return err
		}
		if err := session.End(s, id, note, e.sessionOpts, now); err != nil {
			return err
		}
		if err := store.WriteAtomic(config.SessionsPath(e.StoreDir), s); err != nil {
			return err
		}
		return audit.Append(e.StoreDir, audit.Entry{
			At: now, Action: "session.end", SessionID: id, Actor: e.Actor,
		})
	})
}

// SetFocus binds the project's current task/phase for the given session.
func (e *Engine) SetFocus(sessionID, taskID, phase, note, nextAction string) (*types.Focus, error) {
	now := e.Now()
	var focus types.Focus
	err := store.WithLock(config.TasksPath(e.StoreDir), e.lockTimeout(), func() error {
		proj, err := e.loadProject()
		if err != nil {
			return err
		}
		if taskID != "" {
			if _, t := findTask(proj.Tasks, taskID); t == nil {
				return errs.New(errs.CodeNotFound, "task %s not found", taskID)
			}
		}
		session.SetFocus(&proj.Focus, taskID, phase, note, nextAction, sessionID)
		proj.LastUpdated = now
		proj.Meta.Generation++
		checksum, err := store.Checksum(proj.Tasks)
		if err != nil {
			return errs.Wrap(errs.CodeInternal, err, "checksumming tasks")
		}
		proj.Meta.Checksum = checksum
		if err := store.WriteAtomic(config.TasksPath(e.StoreDir), proj); err != nil {
			return err
		}
		focus = proj.Focus
		return audit.Append(e.StoreDir, audit.Entry{
			At: now, Action: "session.focus", TaskID: taskID, SessionID: sessionID, Actor: e.Actor,
		})
	})
	return &focus, err
}

// loadPipeline reads (or initialises) an epic's lifecycle manifest.
func (e *Engine) loadPipeline(epicID string) (*types.Pipeline, error) {
	path := config.LifecycleManifestPath(e.StoreDir, epicID)
	var p types.Pipeline
	if err := store.Read(path, &p); err != nil {
		if !store.IsNotExist(err) {
			return nil, err
		}
		return types.NewPipeline(epicID, gateMode()), nil
	}
	return &p, nil
}

func gateMode() types.GateMode {
	switch config.GetString("lifecycle.mode") {
	case string(types.GateModeAdvisory):
		return types.GateModeAdvisory
	case string(types.GateModeOff):
		return types.GateModeOff
	default:
		return types.GateModeStrict
	}
}

func (e *Engine) savePipeline(epicID string, p *types.Pipeline) error {
	return store.WriteAtomic(config.LifecycleManifestPath(e.StoreDir, epicID), p)
}

// AdvanceStage moves an epic's lifecycle stage into in_progress (§4.8).
func (e *Engine) AdvanceStage(epicID string, stage types.Stage, kind types.TransitionKind, sessionID string) (*types.Pipeline, error) {
	now := e.Now()
	return e.withPipeline(epicID, sessionID, "epic.advance", func(p *types.Pipeline) error {
		return lifecycle.Advance(p, stage, kind, e.Actor, now)
	})
}

// CompleteStage runs a stage's gates and, for the release stage, its
// verification/provenance checks, then marks it completed (§4.8).
func (e *Engine) CompleteStage(epicID string, stage types.Stage, gates []types.GateResult, reason, sessionID string) (*types.Pipeline, error) {
	now := e.Now()
	return e.withPipeline(epicID, sessionID, "epic.complete", func(p *types.Pipeline) error {
		if stage == types.StageRelease {
			proj, err := e.loadProject()
			if err != nil {
				return err
			}
			if _, t := findTask(proj.Tasks, epicID); t != nil {
				if err := lifecycle.CheckReleaseVerification(t); err != nil {
					return err
				}
			}
		}
		return lifecycle.Complete(p, stage, gates, e.Actor, reason, now)
	})
}

// SkipStage marks a stage skipped, satisfying downstream prerequisites
// without completion evidence (§4.8).
func (e *Engine) SkipStage(epicID string, stage types.Stage, reason, sessionID string) (*types.Pipeline, error) {
	now := e.Now()
	return e.withPipeline(epicID, sessionID, "epic.skip", func(p *types.Pipeline) error {
		return lifecycle.Skip(p, stage, e.Actor, reason, now)
	})
}

// BlockStage marks a stage blocked by an external gate (§4.8).
func (e *Engine) BlockStage(epicID string, stage types.Stage, reason, sessionID string) (*types.Pipeline, error) {
	now := e.Now()
	return e.withPipeline(epicID, sessionID, "epic.block", func(p *types.Pipeline) error {
		return lifecycle.Block(p, stage, e.Actor, reason, now)
	})
}

func (e *Engine) withPipeline(epicID, sessionID, action string, fn func(*types.Pipeline) error) (*types.Pipeline, error) {
	now := e.Now()
	path := config.LifecycleManifestPath(e.StoreDir, epicID)
	var p *types.Pipeline
	err := store.WithLock(path, e.lockTimeout(), func() error {
		loaded, err := e.loadPipeline(epicID)
		if err != nil {
			return err
		}
		if err := fn(loaded); err != nil {
			return err
		}
		if err := e.savePipeline(epicID, loaded); err != nil {
			return err
		}
		p = loaded
		return audit.Append(e.StoreDir, audit.Entry{
			At: now, Action: action, TaskID: epicID, SessionID: sessionID, Actor: e.Actor,
		})
	})
	return p, err
}

func findTask(tasks []*types.Task, id string) (int, *types.Task) {
	for i, t := range tasks {
		if t.ID == id {
			return i, t
		}
	}
	return -1, nil
}
