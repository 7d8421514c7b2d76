// Package schema validates persisted documents against the versioned
// schema set (spec §4.2) and enforces the cross-field invariants of §3.2
// that plain JSON structure cannot express: status/field couplings,
// title≠description, the future-timestamp window, and shell-meta denial.
package schema

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/types"
)

// CurrentVersion is the schema version this build writes.
const CurrentVersion = "v1.0.0"

// MinSupportedVersion is the oldest schemaVersion this build will read.
const MinSupportedVersion = "v1.0.0"

// Mode controls whether unknown fields are warnings or errors (§4.2).
type Mode int

const (
	Lenient Mode = iota
	Strict
)

// FutureWindow is the maximum clock skew tolerated for persisted
// timestamps (§3.2 rule 7 / §8 property 7).
const FutureWindow = 5 * time.Minute

// shellMeta are the characters forbidden in free-text fields that may be
// interpolated into shell commands (ValidateTask checks cancellationReason).
const shellMeta = "`$;&|<>\\"

// CheckVersion verifies a persisted document's schemaVersion is within the
// range this build supports, using semver comparison (x/mod/semver).
func CheckVersion(version string) error {
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return errs.New(errs.CodeValidation, "invalid schemaVersion %q", version)
	}
	if semver.Compare(v, normalisedMin()) < 0 {
		return errs.New(errs.CodeValidation, "schemaVersion %q predates the minimum supported version %q", version, MinSupportedVersion)
	}
	if semver.Compare(v, CurrentVersion) > 0 {
		return errs.New(errs.CodeValidation, "schemaVersion %q is newer than the newest version this build supports %q", version, CurrentVersion)
	}
	return nil
}

func normalisedMin() string {
	if strings.HasPrefix(MinSupportedVersion, "v") {
		return MinSupportedVersion
	}
	return "v" + MinSupportedVersion
}

// ContainsShellMeta reports whether s contains any character forbidden in
// shell-sensitive free text fields.
func ContainsShellMeta(s string) bool {
	return strings.ContainsAny(s, shellMeta)
}

// ValidateTimestamp rejects timestamps more than FutureWindow ahead of now.
func ValidateTimestamp(t time.Time, now time.Time) error {
	if t.After(now.Add(FutureWindow)) {
		return errs.New(errs.CodeValidation, "timestamp %s is too far in the future (max skew %s)", t.Format(time.RFC3339), FutureWindow)
	}
	return nil
}

// ValidateTask applies every cross-field rule of §3.2 to a single task.
// It does not check the dependency graph or hierarchy — those are the
// Dependency Graph and Hierarchy components' responsibility.
func ValidateTask(t *types.Task, now time.Time) error {
	if t.ID == "" {
		return errs.New(errs.CodeValidation, "task id is required")
	}
	if l := len(t.Title); l < 1 || l > 120 {
		return errs.New(errs.CodeValidation, "title must be 1-120 characters (got %d)", l)
	}
	if len(t.Description) > 2000 {
		return errs.New(errs.CodeValidation, "description must be at most 2000 characters")
	}
	if !t.Type.IsValid() {
		return errs.New(errs.CodeValidation, "invalid task type %q", t.Type)
	}
	if !t.Status.IsValid() {
		return errs.New(errs.CodeValidation, "invalid status %q", t.Status)
	}
	if !t.Priority.IsValid() {
		return errs.New(errs.CodeValidation, "invalid priority %q", t.Priority)
	}
	if !t.Size.IsValid() {
		return errs.New(errs.CodeValidation, "invalid size %q", t.Size)
	}

	if t.Description != "" && strings.EqualFold(strings.TrimSpace(t.Title), strings.TrimSpace(t.Description)) {
		return errs.New(errs.CodeValidation, "title and description must differ")
	}

	switch t.Status {
	case types.StatusBlocked:
		if l := len(t.BlockedBy); l < 5 || l > 300 {
			return errs.New(errs.CodeValidation, "blockedBy must be 5-300 characters when status is blocked")
		}
	case types.StatusCancelled:
		if l := len(t.CancellationReason); l < 5 || l > 300 {
			return errs.New(errs.CodeValidation, "cancellationReason must be 5-300 characters when status is cancelled")
		}
		if ContainsShellMeta(t.CancellationReason) {
			return errs.New(errs.CodeValidation, "cancellationReason must not contain shell metacharacters")
		}
		if t.CancelledAt == nil {
			return errs.New(errs.CodeValidation, "cancelledAt must be set when status is cancelled")
		}
	case types.StatusDone:
		if t.CompletedAt == nil {
			return errs.New(errs.CodeValidation, "completedAt must be set when status is done")
		}
	}

	for _, l := range t.Labels {
		if !labelRe.MatchString(l) {
			return errs.New(errs.CodeValidation, "invalid label slug %q", l)
		}
	}

	for _, ts := range []time.Time{t.CreatedAt, t.UpdatedAt} {
		if !ts.IsZero() {
			if err := ValidateTimestamp(ts, now); err != nil {
				return err
			}
		}
	}
	return nil
}

var labelRe = regexp.MustCompile(`^[a-z][a-z0-9.-]*$`)
