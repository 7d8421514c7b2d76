// Package types defines the persisted data model shared by every engine
// component: tasks, projects, sessions, and lifecycle documents.
package types

import "time"

// TaskType is the position of a task in the epic→task→subtask hierarchy.
type TaskType string

const (
	TypeEpic    TaskType = "epic"
	TypeTask    TaskType = "task"
	TypeSubtask TaskType = "subtask"
)

func (t TaskType) IsValid() bool {
	switch t {
	case TypeEpic, TypeTask, TypeSubtask:
		return true
	}
	return false
}

// Status is the task lifecycle state machine (§4.5).
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusBlocked   Status = "blocked"
	StatusDone      Status = "done"
	StatusCancelled Status = "cancelled"
	StatusArchived  Status = "archived"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusBlocked, StatusDone, StatusCancelled, StatusArchived:
		return true
	}
	return false
}

// IsTerminal reports whether a dependency in this status satisfies a
// blocker (done or cancelled count as satisfied, §3.2 rule 6).
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusCancelled
}

// transitions enumerates the legal moves of the status state machine.
var transitions = map[Status]map[Status]bool{
	StatusPending:   {StatusActive: true, StatusBlocked: true, StatusDone: true, StatusCancelled: true},
	StatusActive:    {StatusPending: true, StatusBlocked: true, StatusDone: true, StatusCancelled: true},
	StatusBlocked:   {StatusPending: true, StatusActive: true, StatusDone: true, StatusCancelled: true},
	StatusDone:      {StatusPending: true, StatusActive: true},
	StatusCancelled: {StatusPending: true},
	StatusArchived:  {},
}

// CanTransition reports whether moving from `from` to `to` is legal.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	next, ok := transitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// Priority is task urgency, never a duration estimate (see Non-goals).
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Weight returns the priority_bonus term used by leverage scoring (§4.13).
func (p Priority) Weight() int {
	switch p {
	case PriorityCritical:
		return 40
	case PriorityHigh:
		return 30
	case PriorityMedium:
		return 20
	case PriorityLow:
		return 10
	}
	return 0
}

// Size is a rough bucket, never a duration (Non-goal: no duration estimation).
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

func (s Size) IsValid() bool {
	switch s {
	case "", SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

// EpicLifecycleState is meaningful only when Type == TypeEpic.
type EpicLifecycleState string

const (
	EpicBacklog  EpicLifecycleState = "backlog"
	EpicPlanning EpicLifecycleState = "planning"
	EpicActive   EpicLifecycleState = "active"
	EpicReview   EpicLifecycleState = "review"
	EpicReleased EpicLifecycleState = "released"
	EpicArchived EpicLifecycleState = "archived"
)

// RelationType enumerates the non-blocking relation kinds in Relates.
type RelationType string

const (
	RelationRelated    RelationType = "related"
	RelationBlocks      RelationType = "blocks"
	RelationDuplicates RelationType = "duplicates"
	RelationAbsorbs    RelationType = "absorbs"
	RelationFixes      RelationType = "fixes"
	RelationExtends    RelationType = "extends"
	RelationSupersedes RelationType = "supersedes"
)

func (r RelationType) IsValid() bool {
	switch r {
	case RelationRelated, RelationBlocks, RelationDuplicates, RelationAbsorbs,
		RelationFixes, RelationExtends, RelationSupersedes:
		return true
	}
	return false
}

// Relation is one entry of Task.Relates.
type Relation struct {
	TargetID     string       `json:"targetId"`
	RelationType RelationType `json:"relationType"`
	Reason       string       `json:"reason,omitempty"`
	AddedAt      time.Time    `json:"addedAt"`
}

// Note is one append-only entry of Task.Notes. Never edited in place.
type Note struct {
	At     time.Time `json:"at"`
	Author string    `json:"author"`
	Text   string    `json:"text"`
}

// Verification holds per-gate booleans checked by the lifecycle pipeline's
// release stage (§4.8) and recorded provenance about who last ran them.
type Verification struct {
	Implemented   bool     `json:"implemented"`
	TestsPassed   bool     `json:"testsPassed"`
	QAPassed      bool     `json:"qaPassed"`
	CleanupDone   bool     `json:"cleanupDone"`
	SecurityPassed bool    `json:"securityPassed"`
	Documented    bool     `json:"documented"`
	Round         int      `json:"round"`
	LastAgent     string   `json:"lastAgent,omitempty"`
	FailureLog    []string `json:"failureLog,omitempty"`
}

// Origin records how a task came into being, if known.
type Origin string

const (
	OriginHuman       Origin = "human"
	OriginAgent       Origin = "agent"
	OriginDecompose   Origin = "decompose"
	OriginImport      Origin = "import"
	OriginAutoCascade Origin = "auto_cascade"
)

// Task is the core entity of the store (§3.1).
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        TaskType `json:"type"`
	ParentID    string   `json:"parentId,omitempty"`

	Position        int `json:"position"`
	PositionVersion int `json:"positionVersion"`

	Status   Status   `json:"status"`
	Priority Priority `json:"priority"`
	Size     Size     `json:"size,omitempty"`
	Phase    string   `json:"phase,omitempty"`

	Depends []string   `json:"depends,omitempty"`
	Relates []Relation `json:"relates,omitempty"`

	BlockedBy string   `json:"blockedBy,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	Files     []string `json:"files,omitempty"`
	Acceptance []string `json:"acceptance,omitempty"`
	Notes     []Note   `json:"notes,omitempty"`

	EpicLifecycle EpicLifecycleState `json:"epicLifecycle,omitempty"`
	Origin        Origin             `json:"origin,omitempty"`
	Verification  Verification       `json:"verification"`

	NoAutoComplete bool `json:"noAutoComplete,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`

	CancellationReason string `json:"cancellationReason,omitempty"`

	CreatedBy   string `json:"createdBy,omitempty"`
	ModifiedBy  string `json:"modifiedBy,omitempty"`
	ValidatedBy string `json:"validatedBy,omitempty"`
	TestedBy    string `json:"testedBy,omitempty"`
	SessionID   string `json:"sessionId,omitempty"`

	// Archive sets this block on move into cold storage (§4.12); nil while active.
	Archive *ArchiveInfo `json:"_archive,omitempty"`
}

// ArchiveInfo is attached to a task when it moves to the cold store.
type ArchiveInfo struct {
	ArchivedAt time.Time `json:"archivedAt"`
	Reason     string    `json:"reason,omitempty"`
}

// Clone returns a deep-enough copy for safe mutation-primitive handoff.
func (t *Task) Clone() *Task {
	c := *t
	c.Depends = append([]string(nil), t.Depends...)
	c.Relates = append([]Relation(nil), t.Relates...)
	c.Labels = append([]string(nil), t.Labels...)
	c.Files = append([]string(nil), t.Files...)
	c.Acceptance = append([]string(nil), t.Acceptance...)
	c.Notes = append([]Note(nil), t.Notes...)
	c.Verification.FailureLog = append([]string(nil), t.Verification.FailureLog...)
	return &c
}
