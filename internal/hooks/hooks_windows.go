//go:build windows

package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"

	"github.com/cleohq/cleo/internal/types"
)

// runHook executes the hook and enforces a timeout on Windows. Process
// groups are not available; on timeout we best-effort kill the started
// process, descendants may survive if they detach.
func (r *Runner) runHook(hookPath, event string, t *types.Task) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	taskJSON, err := json.Marshal(t)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, hookPath, t.ID, event)
	cmd.Stdin = bytes.NewReader(taskJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}
