package config

import (
	"os"
	"path/filepath"
)

// StoreDirName is the default store directory name under the project root.
const StoreDirName = ".cleo"

// FindProjectRoot walks up from the current working directory (or from
// start, if non-empty) looking for the nearest ancestor containing a store
// directory. Returns "" if none is found.
func FindProjectRoot(start string) string {
	dir := start
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return ""
		}
		dir = cwd
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, StoreDirName)); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// StoreDir resolves the store directory honouring the prefix_DIR env
// override, then the nearest project root, then "./.cleo" as a last resort
// (the caller is expected to create it on `cleo init`).
func StoreDir() string {
	if v := os.Getenv(EnvPrefix + "_DIR"); v != "" {
		abs, err := filepath.Abs(v)
		if err == nil {
			return abs
		}
		return v
	}
	if root := FindProjectRoot(""); root != "" {
		return filepath.Join(root, StoreDirName)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return StoreDirName
	}
	return filepath.Join(cwd, StoreDirName)
}

// HomeDir resolves the per-user directory honouring the prefix_HOME env
// override, falling back to ~/.cleo.
func HomeDir() string {
	if v := os.Getenv(EnvPrefix + "_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cleo-home"
	}
	return filepath.Join(home, ".cleo")
}

// TasksPath, ArchivePath, etc. name the canonical store files (§6.1).
func TasksPath(storeDir string) string      { return filepath.Join(storeDir, "tasks.json") }
func ArchivePath(storeDir string) string    { return filepath.Join(storeDir, "archive.json") }
func SessionsPath(storeDir string) string   { return filepath.Join(storeDir, "sessions.json") }
func AuditLogPath(storeDir string) string   { return filepath.Join(storeDir, "audit.log") }
func ConfigPath(storeDir string) string     { return filepath.Join(storeDir, "config.yaml") }
func LegacyTOMLPath(storeDir string) string { return filepath.Join(storeDir, "config.toml") }
func ProjectInfoPath(storeDir string) string {
	return filepath.Join(storeDir, "project-info.json")
}
func LifecycleDir(storeDir, epicID string) string {
	return filepath.Join(storeDir, "lifecycle", epicID)
}
func LifecycleManifestPath(storeDir, epicID string) string {
	return filepath.Join(LifecycleDir(storeDir, epicID), "_manifest.json")
}
func BackupsDir(storeDir, kind string) string {
	return filepath.Join(storeDir, "backups", kind)
}
func CheckpointDir(storeDir string) string { return filepath.Join(storeDir, ".checkpoint") }
func LockPath(path string) string          { return path + ".lock" }
