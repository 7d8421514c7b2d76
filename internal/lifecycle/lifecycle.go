// Package lifecycle implements the epic Lifecycle Pipeline (spec §4.8,
// component 8): stage prerequisite enforcement, gate checks, and the
// release stage's verification/provenance requirements.
package lifecycle

import (
	"time"

	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/types"
)

// stageIndex maps a stage to its position in the strict sequence.
func stageIndex(s types.Stage) int {
	for i, st := range types.Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// PrerequisitesMet reports whether every stage before target is completed
// or skipped. Contribution is cross-cutting and never checked here (§4.8).
func PrerequisitesMet(p *types.Pipeline, target types.Stage) bool {
	idx := stageIndex(target)
	if idx <= 0 {
		return true
	}
	for _, s := range types.Stages[:idx] {
		rec := p.Stages[s]
		if rec == nil || (rec.State != types.StageCompleted && rec.State != types.StageSkipped) {
			return false
		}
	}
	return true
}

// Advance moves target into in_progress, enforcing prerequisites unless
// mode is advisory/off or kind is forced (§4.8).
func Advance(p *types.Pipeline, target types.Stage, kind types.TransitionKind, actor string, now time.Time) error {
	rec := p.Stages[target]
	if rec == nil {
		return errs.New(errs.CodeValidation, "unknown lifecycle stage %s", target)
	}
	if p.Mode == types.GateModeStrict && kind != types.TransitionForced && !PrerequisitesMet(p, target) {
		return errs.New(errs.CodeGateNotMet, "stage %s has unmet prerequisites", target).
			WithFix("complete the preceding stages or use a forced transition")
	}

	from := rec.State
	rec.Transitions = append(rec.Transitions, types.Transition{
		From: from, To: types.StageInProgress, Kind: kind, Actor: actor, At: now,
	})
	rec.State = types.StageInProgress
	if rec.StartedAt == nil {
		ts := now
		rec.StartedAt = &ts
	}
	return nil
}

// Complete marks target completed, running its gates first unless mode is
// off. A failing gate in strict mode blocks completion; in advisory mode it
// is recorded as a warning but does not block (§4.8).
func Complete(p *types.Pipeline, target types.Stage, gates []types.GateResult, actor, reason string, now time.Time) error {
	rec := p.Stages[target]
	if rec == nil {
		return errs.New(errs.CodeValidation, "unknown lifecycle stage %s", target)
	}

	rec.Gates = append(rec.Gates, gates...)
	gateFailed := false
	for _, g := range gates {
		if g.Result == "fail" {
			gateFailed = true
			if p.Mode == types.GateModeStrict {
				return errs.New(errs.CodeGateNotMet, "gate %q failed for stage %s", g.Name, target).
					WithDetails(map[string]any{"gate": g.Name, "details": g.Details})
			}
		}
	}

	if target == types.StageRelease {
		if err := checkReleaseRequirements(p, actor); err != nil {
			return err
		}
	}

	// advisory mode lets a failing gate through but still marks the
	// transition forced so the override is visible in Transitions; off
	// mode and all-passing gates record an ordinary manual completion.
	kind := types.TransitionManual
	if gateFailed && p.Mode == types.GateModeAdvisory {
		kind = types.TransitionForced
	}

	from := rec.State
	rec.Transitions = append(rec.Transitions, types.Transition{
		From: from, To: types.StageCompleted, Kind: kind, Actor: actor, At: now, Reason: reason,
	})
	rec.State = types.StageCompleted
	ts := now
	rec.CompletedAt = &ts
	return nil
}

// checkReleaseRequirements enforces the release stage's special rules
// (§4.8): the requesting epic's verification gates and three-way distinct
// provenance (createdBy != validatedBy != testedBy) are validated by the
// caller against the associated epic task; this function validates the
// pipeline-level gate state only. The three-way check lives in
// CheckCircularValidation since it needs the Task, not the Pipeline.
func checkReleaseRequirements(p *types.Pipeline, actor string) error {
	for _, s := range []types.Stage{types.StageValidation, types.StageTesting} {
		rec := p.Stages[s]
		if rec == nil || rec.State != types.StageCompleted {
			return errs.New(errs.CodeGateNotMet, "release requires %s to be completed first", s)
		}
	}
	return nil
}

// CheckCircularValidation enforces that createdBy, validatedBy, and
// testedBy are pairwise distinct (§4.8 CIRCULAR_VALIDATION). Overlap is
// checked first — a partial overlap (e.g. createdBy==validatedBy with
// testedBy still unset) is circular regardless of what's missing. Only
// once no overlap exists does a missing validatedBy/testedBy surface as
// its own provenance gap.
func CheckCircularValidation(t *types.Task) error {
	overlap := (t.ValidatedBy != "" && t.CreatedBy == t.ValidatedBy) ||
		(t.TestedBy != "" && t.ValidatedBy == t.TestedBy) ||
		(t.TestedBy != "" && t.CreatedBy == t.TestedBy)
	if overlap {
		return errs.New(errs.CodeCircularValidation, "task %s was created, validated, and tested by overlapping actors", t.ID)
	}
	if t.ValidatedBy == "" || t.TestedBy == "" {
		return errs.New(errs.CodeProvenanceMissing, "task %s is missing validatedBy/testedBy provenance", t.ID)
	}
	return nil
}

// CheckReleaseVerification validates that an epic's verification gates are
// all satisfied before its release stage can complete (§4.8).
func CheckReleaseVerification(t *types.Task) error {
	v := t.Verification
	missing := []string{}
	if !v.Implemented {
		missing = append(missing, "implemented")
	}
	if !v.Documented {
		missing = append(missing, "documented")
	}
	if len(missing) > 0 {
		return errs.New(errs.CodeGateNotMet, "release requires verification gates: %v", missing)
	}
	return CheckCircularValidation(t)
}

// Skip marks a stage skipped, which satisfies prerequisite checks for later
// stages without requiring completion evidence.
func Skip(p *types.Pipeline, target types.Stage, actor, reason string, now time.Time) error {
	rec := p.Stages[target]
	if rec == nil {
		return errs.New(errs.CodeValidation, "unknown lifecycle stage %s", target)
	}
	from := rec.State
	rec.Transitions = append(rec.Transitions, types.Transition{
		From: from, To: types.StageSkipped, Kind: types.TransitionManual, Actor: actor, At: now, Reason: reason,
	})
	rec.State = types.StageSkipped
	return nil
}

// Block marks a stage blocked with a reason, used when an external gate
// (e.g. an unmet dependency) prevents progress.
func Block(p *types.Pipeline, target types.Stage, actor, reason string, now time.Time) error {
	rec := p.Stages[target]
	if rec == nil {
		return errs.New(errs.CodeValidation, "unknown lifecycle stage %s", target)
	}
	from := rec.State
	rec.Transitions = append(rec.Transitions, types.Transition{
		From: from, To: types.StageBlocked, Kind: types.TransitionManual, Actor: actor, At: now, Reason: reason,
	})
	rec.State = types.StageBlocked
	return nil
}

// Status summarises a pipeline's overall completion for display.
func Status(p *types.Pipeline) (completed, total int) {
	for _, s := range types.Stages {
		total++
		if rec := p.Stages[s]; rec != nil && (rec.State == types.StageCompleted || rec.State == types.StageSkipped) {
			completed++
		}
	}
	return completed, total
}
