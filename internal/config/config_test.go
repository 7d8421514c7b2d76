package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindProjectRootWalksUpToStoreDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, StoreDirName), 0750))
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0750))

	assert.Equal(t, root, FindProjectRoot(nested))
}

func TestFindProjectRootReturnsEmptyWhenNoneFound(t *testing.T) {
	assert.Empty(t, FindProjectRoot(t.TempDir()))
}

func TestStoreDirHonoursEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvPrefix+"_DIR", dir)
	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, abs, StoreDir())
}

func TestHomeDirHonoursEnvOverride(t *testing.T) {
	t.Setenv(EnvPrefix+"_HOME", "/tmp/custom-cleo-home")
	assert.Equal(t, "/tmp/custom-cleo-home", HomeDir())
}

func TestInitializeAppliesDefaults(t *testing.T) {
	t.Setenv(EnvPrefix+"_HOME", t.TempDir())
	require.NoError(t, Initialize())
	assert.Equal(t, 3, GetInt("hierarchy.max-depth"))
	assert.Equal(t, "strict", GetString("lifecycle.mode"))
	assert.False(t, GetBool("multi-session"))
	assert.Equal(t, LockTimeout().String(), "10s")
}

func TestSetOverridesResolvedValue(t *testing.T) {
	t.Setenv(EnvPrefix+"_HOME", t.TempDir())
	require.NoError(t, Initialize())
	Set("lifecycle.mode", "advisory")
	assert.Equal(t, "advisory", GetString("lifecycle.mode"))
}

func TestMigrateLegacyTOMLWritesYAMLAndRemovesOriginal(t *testing.T) {
	storeDir := t.TempDir()
	legacy := LegacyTOMLPath(storeDir)
	require.NoError(t, os.WriteFile(legacy, []byte("lifecycle_mode = \"advisory\"\n"), 0644))

	target, err := MigrateLegacyTOML(storeDir)
	require.NoError(t, err)
	assert.Equal(t, ConfigPath(storeDir), target)
	assert.FileExists(t, target)
	assert.NoFileExists(t, legacy)
}
