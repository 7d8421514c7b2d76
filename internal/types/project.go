package types

import "time"

// Phase is one entry of Project.Phases.
type Phase struct {
	Order       int        `json:"order"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Focus binds the active session's current task and phase (§4.9).
type Focus struct {
	CurrentTask    string `json:"currentTask,omitempty"`
	CurrentPhase   string `json:"currentPhase,omitempty"`
	SessionNote    string `json:"sessionNote,omitempty"`
	NextAction     string `json:"nextAction,omitempty"`
	PrimarySession string `json:"primarySession,omitempty"`
}

// Meta is the root bookkeeping block common to the active store and the
// archive (§3.3, §4.1, §4.3).
type Meta struct {
	SchemaVersion  string `json:"schemaVersion"`
	ConfigVersion  string `json:"configVersion"`
	Checksum       string `json:"checksum"`
	Generation     int64  `json:"generation"`
	ActiveSession  string `json:"activeSession,omitempty"`
	SessionCount   int    `json:"sessionCount"`
	SequenceCursor int    `json:"sequenceCursor"`
}

// Project is the root document at <store>/tasks (§3.3).
type Project struct {
	Name         string           `json:"name"`
	Phases       map[string]Phase `json:"phases,omitempty"`
	CurrentPhase string           `json:"currentPhase,omitempty"`
	Focus        Focus            `json:"focus"`
	Meta         Meta             `json:"_meta"`
	LastUpdated  time.Time        `json:"lastUpdated"`
	Tasks        []*Task          `json:"tasks"`
}

// Archive is the root document at <store>/archive (§3.3, §4.12).
type Archive struct {
	Meta           Meta    `json:"_meta"`
	ArchivedTasks  []*Task `json:"archivedTasks"`
}
