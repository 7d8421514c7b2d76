package types

import "time"

// Session is one entry of the sessions store (§3.4).
type Session struct {
	ID              string     `json:"id"`
	CreatedAt       time.Time  `json:"createdAt"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
	Scope           string     `json:"scope"`
	FocusTaskID     string     `json:"focusTaskId,omitempty"`
	Agent           string     `json:"agent,omitempty"`
	TerminalBinding string     `json:"terminalBinding,omitempty"`
	Note            string     `json:"note,omitempty"`
}

// SessionStore is the root document holding every session record.
type SessionStore struct {
	Meta     Meta       `json:"_meta"`
	Sessions []*Session `json:"sessions"`
}
