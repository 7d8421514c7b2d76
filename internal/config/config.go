// Package config resolves the project root, the store directory, and
// merges configuration from defaults, global config, project config,
// environment, and flags — in that precedence order (spec §1, component 1).
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix for all CLEO overrides.
const EnvPrefix = "CLEO"

var v *viper.Viper

// Initialize sets up the viper configuration singleton following the
// precedence chain: defaults < global (~/.cleo/config.yaml) < project
// (<root>/.cleo/config.yaml) < environment. Explicit flag overrides are
// applied afterwards by the orchestration layer via Set.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)

	// 1. Global config, lowest explicit precedence.
	globalPath := filepath.Join(HomeDir(), "config.yaml")
	if _, err := os.Stat(globalPath); err == nil {
		if err := mergeFile(v, globalPath); err != nil {
			return fmt.Errorf("reading global config: %w", err)
		}
	}

	// 2. Project config, found by walking up from cwd.
	if root := FindProjectRoot(""); root != "" {
		projectCfg := ConfigPath(filepath.Join(root, StoreDirName))
		if _, err := os.Stat(projectCfg); err == nil {
			if err := mergeFile(v, projectCfg); err != nil {
				return fmt.Errorf("reading project config: %w", err)
			}
		} else if legacy := LegacyTOMLPath(filepath.Join(root, StoreDirName)); fileExists(legacy) {
			// Legacy config.toml import path: migrate in-memory only; callers
			// that want it persisted call MigrateLegacyTOML explicitly.
			if err := mergeLegacyTOML(v, legacy); err != nil {
				return fmt.Errorf("reading legacy config.toml: %w", err)
			}
		}
	}

	// 3. Environment, highest automatic precedence.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return nil
}

// Reload re-runs Initialize, picking up edits made to the global or project
// config file since process start. Flag-level overrides already applied via
// Set are lost and must be re-applied by the caller.
func Reload() error {
	return Initialize()
}

// Watch starts a Watcher on the project config file (falling back to the
// global config file if no project root is found) that calls Reload and
// passes its result to onReload rather than returning it, since reload runs
// off the main request path. The caller owns ctx's lifetime.
func Watch(ctx context.Context, onReload func(error)) (*Watcher, error) {
	path := filepath.Join(HomeDir(), "config.yaml")
	if root := FindProjectRoot(""); root != "" {
		path = ConfigPath(filepath.Join(root, StoreDirName))
	}
	w := NewWatcher(path, func() {
		onReload(Reload())
	})
	w.Start(ctx)
	return w, nil
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func mergeFile(vp *viper.Viper, path string) error {
	vp.SetConfigFile(path)
	return vp.MergeInConfig()
}

// mergeLegacyTOML reads a legacy TOML config and merges its keys into v,
// giving the BurntSushi/toml dependency the config-migration path SPEC_FULL.md
// names for it rather than a live second format.
func mergeLegacyTOML(vp *viper.Viper, path string) error {
	var raw map[string]interface{}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return err
	}
	for k, val := range raw {
		vp.Set(k, val)
	}
	return nil
}

// MigrateLegacyTOML rewrites a legacy config.toml as config.yaml in-place
// and removes the original, returning the new path.
func MigrateLegacyTOML(storeDir string) (string, error) {
	legacy := LegacyTOMLPath(storeDir)
	var raw map[string]interface{}
	if _, err := toml.DecodeFile(legacy, &raw); err != nil {
		return "", fmt.Errorf("decoding legacy config.toml: %w", err)
	}
	nv := viper.New()
	nv.SetConfigType("yaml")
	for k, val := range raw {
		nv.Set(k, val)
	}
	target := ConfigPath(storeDir)
	if err := nv.WriteConfigAs(target); err != nil {
		return "", fmt.Errorf("writing migrated config.yaml: %w", err)
	}
	_ = os.Remove(legacy)
	return target, nil
}

func setDefaults(vp *viper.Viper) {
	vp.SetDefault("lock-timeout", "10s")
	vp.SetDefault("actor", "")
	vp.SetDefault("multi-session", false)
	vp.SetDefault("require-notes", false)

	vp.SetDefault("hierarchy.max-depth", 3)
	vp.SetDefault("hierarchy.max-active-siblings", 8)
	vp.SetDefault("hierarchy.max-siblings", 32) // 0 means unbounded, see DESIGN.md Open question decisions 3
	vp.SetDefault("hierarchy.count-done-in-limit", false)

	vp.SetDefault("lifecycle.mode", "strict") // strict | advisory | off

	vp.SetDefault("backup.operational-rotate", 10)
	vp.SetDefault("backup.safety-rotate", 20)

	vp.SetDefault("validator.strict", false)

	vp.SetDefault("log.max-size-mb", 10)
	vp.SetDefault("log.max-age-days", 28)
	vp.SetDefault("log.max-backups", 5)
	vp.SetDefault("log.verbose", false)
}

// GetString, GetBool, GetInt, GetDuration retrieve resolved config values.
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// Set applies a flag-level override; flags take precedence over everything
// else because they are applied last (spec §1).
func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}

// LockTimeout returns the configured deadline for file-lock acquisition
// (default 10s per §4.1).
func LockTimeout() time.Duration {
	if d := GetDuration("lock-timeout"); d > 0 {
		return d
	}
	return 10 * time.Second
}
