// Package hooks runs the git hook contract of spec §3 (commit-msg,
// pre-commit) plus engine lifecycle hooks. Native scripts in
// <store>/hooks/ run via os/exec with a timeout; commit-msg/pre-commit
// plugins distributed as WASM modules run sandboxed under wazero, reading
// the commit context on stdin and writing a verdict on stdout; no host
// functions are exported to them, so they cannot call into the engine
// (see hooks_wasm.go).
package hooks

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cleohq/cleo/internal/types"
)

// Event names for native lifecycle hooks.
const (
	EventCreate       = "create"
	EventUpdate       = "update"
	EventStatusChange = "status_change"
	EventClose        = "close"
)

// Hook file names under the hooks directory.
const (
	HookOnCreate       = "on_create"
	HookOnUpdate       = "on_update"
	HookOnStatusChange = "on_status_change"
	HookOnClose        = "on_close"
)

// Runner executes native hook scripts for a store.
type Runner struct {
	hooksDir string
	timeout  time.Duration
}

// NewRunner creates a hook runner rooted at hooksDir.
func NewRunner(hooksDir string) *Runner {
	return &Runner{hooksDir: hooksDir, timeout: 10 * time.Second}
}

// Run executes a hook asynchronously if present; errors are fire-and-forget.
func (r *Runner) Run(event string, t *types.Task) {
	hookPath, ok := r.resolve(event)
	if !ok {
		return
	}
	go func() {
		_ = r.runHook(hookPath, event, t)
	}()
}

// RunSync executes a hook synchronously and returns any error.
func (r *Runner) RunSync(event string, t *types.Task) error {
	hookPath, ok := r.resolve(event)
	if !ok {
		return nil
	}
	return r.runHook(hookPath, event, t)
}

// HookExists reports whether an executable hook is installed for event.
func (r *Runner) HookExists(event string) bool {
	_, ok := r.resolve(event)
	return ok
}

func (r *Runner) resolve(event string) (string, bool) {
	hookName := eventToHook(event)
	if hookName == "" {
		return "", false
	}
	hookPath := filepath.Join(r.hooksDir, hookName)
	info, err := os.Stat(hookPath)
	if err != nil || info.IsDir() {
		return "", false
	}
	if info.Mode()&0111 == 0 {
		return "", false
	}
	return hookPath, true
}

func eventToHook(event string) string {
	switch event {
	case EventCreate:
		return HookOnCreate
	case EventUpdate:
		return HookOnUpdate
	case EventStatusChange:
		return HookOnStatusChange
	case EventClose:
		return HookOnClose
	default:
		return ""
	}
}
