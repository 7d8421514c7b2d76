// Package checkpoint implements Checkpoints (spec §4.11, component 11):
// before every mutation commit, the engine may stage a point-in-time
// snapshot of the store subtree into an isolated change repository.
// Checkpoint creation is best-effort: a failure never aborts the caller's
// commit, it only surfaces as a warning.
package checkpoint

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Repo is the isolated change repository rooted at a directory under the
// store (never the project's own git repository).
type Repo struct {
	dir string
}

// Open returns a Repo bound to dir, running `git init` the first time it is
// used. The isolated repo has no relation to any project-level git remote.
func Open(dir string) (*Repo, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); os.IsNotExist(err) {
		cmd := exec.Command("git", "init", "--quiet")
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			return nil, fmt.Errorf("failed to init checkpoint repo: %w\n%s", err, out)
		}
		for _, kv := range [][2]string{{"user.name", "cleo"}, {"user.email", "cleo@localhost"}} {
			cfg := exec.Command("git", "config", kv[0], kv[1])
			cfg.Dir = dir
			_ = cfg.Run() // best-effort
		}
	}
	return &Repo{dir: dir}, nil
}

// Stage copies the named store files (paths outside dir) into the
// checkpoint repo and commits them under a message naming the mutation.
// Any failure is returned as an error; TryStage is the wrapper that turns
// it into a warning string so the caller's own commit can proceed (§4.11).
func (r *Repo) Stage(action string, files map[string]string, now time.Time) error {
	for rel, src := range files {
		dst := filepath.Join(r.dir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
			return fmt.Errorf("checkpoint: failed to create %s: %w", filepath.Dir(dst), err)
		}
		data, err := os.ReadFile(src) // #nosec G304 -- store-controlled path
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("checkpoint: failed to read %s: %w", src, err)
		}
		if err := os.WriteFile(dst, data, 0644); err != nil {
			return fmt.Errorf("checkpoint: failed to write %s: %w", dst, err)
		}
	}

	add := exec.Command("git", "add", "-A")
	add.Dir = r.dir
	if out, err := add.CombinedOutput(); err != nil {
		return fmt.Errorf("checkpoint: git add failed: %w\n%s", err, out)
	}

	msg := fmt.Sprintf("%s @ %s", action, now.UTC().Format(time.RFC3339))
	commit := exec.Command("git", "commit", "--quiet", "--allow-empty", "-m", msg)
	commit.Dir = r.dir
	if out, err := commit.CombinedOutput(); err != nil {
		return fmt.Errorf("checkpoint: git commit failed: %w\n%s", err, out)
	}
	return nil
}

// TryStage runs Stage and swallows any error into a returned warning string
// instead of propagating it, matching the best-effort contract of §4.11.
func TryStage(dir, action string, files map[string]string, now time.Time) (warning string) {
	repo, err := Open(dir)
	if err != nil {
		return fmt.Sprintf("checkpoint unavailable: %v", err)
	}
	if err := repo.Stage(action, files, now); err != nil {
		return fmt.Sprintf("checkpoint failed: %v", err)
	}
	return ""
}
