package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_defaultsFS(t *testing.T) {
	data, err := defaultsFS.ReadFile("defaults/config")
	require.NoError(t, err)
	assert.Contains(t, string(data), "base_url")
	assert.Contains(t, string(data), "max_nav_attempts")
	assert.Contains(t, string(data), "color_navigate")
}

func TestLoad_WithCustomDir(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "custom-config")

	cfg, err := Load(configDir)
	require.NoError(t, err)

	assert.Equal(t, configDir, cfg.ConfigDir())
	assert.FileExists(t, filepath.Join(configDir, "config"), "defaults installed on first use")
	assert.Equal(t, "mediation_form_v1", cfg.StorageKey)
	assert.Equal(t, "0,255,0", cfg.Colors.Navigate)
}

func TestLoad_DoesNotOverwriteUserConfig(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "formprobe")
	require.NoError(t, os.MkdirAll(configDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config"), []byte("base_url = http://user:3000\n"), 0o600))

	cfg, err := Load(configDir)
	require.NoError(t, err)
	assert.Equal(t, "http://user:3000", cfg.BaseURL)

	data, err := os.ReadFile(filepath.Join(configDir, "config"))
	require.NoError(t, err)
	assert.Equal(t, "base_url = http://user:3000\n", string(data))
}

func TestLoad_InvalidConfig(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "formprobe")
	require.NoError(t, os.MkdirAll(configDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config"), []byte("viewport = watch\n"), 0o600))

	_, err := Load(configDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load values")
}

func TestLocalConfig_LocalOverridesGlobal(t *testing.T) {
	tmpDir := t.TempDir()
	globalDir := filepath.Join(tmpDir, "global")
	localDir := filepath.Join(tmpDir, ".formprobe")
	require.NoError(t, os.MkdirAll(globalDir, 0o700))
	require.NoError(t, os.MkdirAll(localDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config"), []byte("base_url = http://global\ncolor_list = #010203\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(localDir, "config"), []byte("base_url = http://local\n"), 0o600))

	cfg, err := loadWithLocal(globalDir, localDir)
	require.NoError(t, err)

	assert.Equal(t, localDir, cfg.LocalDir())
	assert.Equal(t, "http://local", cfg.BaseURL)
	assert.Equal(t, "1,2,3", cfg.Colors.List)
}

func TestLocalConfig_NoLocalDir(t *testing.T) {
	globalDir := filepath.Join(t.TempDir(), "global")
	cfg, err := loadWithLocal(globalDir, "")
	require.NoError(t, err)
	assert.Empty(t, cfg.LocalDir())
}

func TestDefaultConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", "formprobe"), DefaultConfigDir())

	t.Setenv("XDG_CONFIG_HOME", "")
	assert.Contains(t, DefaultConfigDir(), "formprobe")
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, Duration(1500))
	assert.Equal(t, time.Duration(0), Duration(0))
}
