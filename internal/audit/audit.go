// Package audit implements the Audit Log (spec §4.10, component 10): one
// append-only JSON line per mutation, streamable without materialising the
// whole file. Entries are never edited or reordered.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/cleohq/cleo/internal/config"
)

// Entry is one audit record: {at, action, taskId?, sessionId?, actor,
// before, after, details} (§4.10).
type Entry struct {
	At        time.Time      `json:"at"`
	Action    string         `json:"action"`
	TaskID    string         `json:"taskId,omitempty"`
	SessionID string         `json:"sessionId,omitempty"`
	Actor     string         `json:"actor,omitempty"`
	Before    any            `json:"before,omitempty"`
	After     any            `json:"after,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// AgentProvenance types the optional "who/what model drove this mutation"
// shape an agent-facing caller may attach to Entry.Details["agent"]. The
// engine never calls the Anthropic API itself; this only borrows the SDK's
// Model type so a recorded model name stays a closed, typo-checked value
// rather than an untyped string.
type AgentProvenance struct {
	Model        anthropic.Model `json:"model,omitempty"`
	InputTokens  int64           `json:"inputTokens,omitempty"`
	OutputTokens int64           `json:"outputTokens,omitempty"`
}

// WithAgent attaches typed agent provenance to an entry's details map.
func (e Entry) WithAgent(a AgentProvenance) Entry {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details["agent"] = a
	return e
}

// EnsureFile creates the audit log directory and file if absent.
func EnsureFile(storeDir string) (string, error) {
	p := config.AuditLogPath(storeDir)
	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil {
		return "", fmt.Errorf("failed to create audit directory: %w", err)
	}
	if _, err := os.Stat(p); err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to stat audit log: %w", err)
		}
		if err := os.WriteFile(p, []byte{}, 0644); err != nil { // nolint:gosec // shared append log
			return "", fmt.Errorf("failed to create audit log: %w", err)
		}
	}
	return p, nil
}

// Append writes one entry as a single JSON line. Callers must never rewrite
// or reorder previously written lines (§4.10).
func Append(storeDir string, e Entry) error {
	if e.Action == "" {
		return fmt.Errorf("audit entry requires an action")
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	} else {
		e.At = e.At.UTC()
	}

	p, err := EnsureFile(storeDir)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644) // nolint:gosec // intended permissions
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer func() { _ = f.Close() }()

	bw := bufio.NewWriter(f)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush audit log: %w", err)
	}
	return f.Sync()
}

// Stream reads every entry in file order, calling fn for each. This never
// materialises the whole file in memory at once.
func Stream(storeDir string, fn func(Entry) error) error {
	p := config.AuditLogPath(storeDir)
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return fmt.Errorf("failed to decode audit entry: %w", err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return scanner.Err()
}
