//go:build unix

package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/cleohq/cleo/internal/types"
)

// runHook executes the hook and enforces a timeout, killing the process
// group on expiration so descendant processes do not outlive it.
func (r *Runner) runHook(hookPath, event string, t *types.Task) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	taskJSON, err := json.Marshal(t)
	if err != nil {
		return err
	}

	// #nosec G204 -- hookPath is from the controlled store hooks directory
	cmd := exec.CommandContext(ctx, hookPath, t.ID, event)
	cmd.Stdin = bytes.NewReader(taskJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

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
			if err := unix.Kill(-cmd.Process.Pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
				return fmt.Errorf("kill process group: %w", err)
			}
		}
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}
