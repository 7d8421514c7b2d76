// Package backup implements Backup & Restore (spec §4.12 component 12):
// operational backups taken before every mutation, safety backups taken
// before destructive ones, rotation, and restore with a pre-restore safety
// backup of its own.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cleohq/cleo/internal/config"
)

// Kind distinguishes the two rotation pools (§6.1).
type Kind string

const (
	KindOperational Kind = "operational"
	KindSafety      Kind = "safety"
)

// RotationLimits mirrors backup.operational-rotate/backup.safety-rotate.
type RotationLimits struct {
	Operational int
	Safety      int
}

// Take copies the named store file into the rotation pool named by kind,
// stamped with now, then prunes the pool down to its configured limit.
func Take(storeDir string, kind Kind, srcPath string, limits RotationLimits, now time.Time) (string, error) {
	dir := config.BackupsDir(storeDir, string(kind))
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create %s backup directory: %w", kind, err)
	}

	data, err := os.ReadFile(srcPath) // #nosec G304 -- store-controlled path
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s for backup: %w", srcPath, err)
	}

	name := fmt.Sprintf("%s.%s.bak", filepath.Base(srcPath), now.UTC().Format("20060102T150405.000000000"))
	dst := filepath.Join(dir, name)
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup %s: %w", dst, err)
	}

	limit := limits.Operational
	if kind == KindSafety {
		limit = limits.Safety
	}
	if err := rotate(dir, filepath.Base(srcPath), limit); err != nil {
		return dst, err
	}
	return dst, nil
}

// rotate keeps only the newest `limit` backups of base within dir (0 =
// unbounded retention).
func rotate(dir, base string, limit int) error {
	if limit <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list backup directory %s: %w", dir, err)
	}
	var matches []string
	prefix := base + "."
	for _, e := range entries {
		if !e.IsDir() && len(e.Name()) > len(prefix) && e.Name()[:len(prefix)] == prefix {
			matches = append(matches, e.Name())
		}
	}
	sort.Strings(matches) // timestamp-suffixed names sort chronologically
	if len(matches) <= limit {
		return nil
	}
	for _, name := range matches[:len(matches)-limit] {
		_ = os.Remove(filepath.Join(dir, name))
	}
	return nil
}

// Restore copies a previously taken backup file back over dstPath, taking
// a fresh safety backup of the current dstPath first so a bad restore is
// itself recoverable (§4.12).
func Restore(storeDir string, backupPath, dstPath string, limits RotationLimits, now time.Time) error {
	if _, err := Take(storeDir, KindSafety, dstPath, limits, now); err != nil {
		return fmt.Errorf("pre-restore safety backup failed: %w", err)
	}
	data, err := os.ReadFile(backupPath) // #nosec G304 -- operator-selected backup file
	if err != nil {
		return fmt.Errorf("failed to read backup %s: %w", backupPath, err)
	}
	return os.WriteFile(dstPath, data, 0644)
}

// List returns the backup file names in a pool, newest first.
func List(storeDir string, kind Kind) ([]string, error) {
	dir := config.BackupsDir(storeDir, string(kind))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}
