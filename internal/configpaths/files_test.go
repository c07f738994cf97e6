package configpaths

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCandidatePaths(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG paths")
	}
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	jsonPaths, yamlPaths, tomlPaths := ConfigCandidatePaths("custom/gen.yml")
	require.NotEmpty(t, yamlPaths)
	assert.Equal(t, "custom/gen.yml", yamlPaths[0], "the user path comes first")
	assert.Contains(t, jsonPaths, filepath.Join("/xdg", "gobjgen", "config.json"))
	assert.Contains(t, tomlPaths, "/etc/gobjgen/config.toml")
	assert.NotContains(t, jsonPaths, "custom/gen.yml")
}

func TestDefaultConfigPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG paths")
	}
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	p, err := DefaultConfigPath("yml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/xdg", "gobjgen", "config.yaml"), p)
	assert.Equal(t, "json", Ext("ini"))
}
