// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package merge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/antgroup/hugescm/modules/diferenco"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigAggressiveDefaultTrue(t *testing.T) {
	var c *Config
	assert.True(t, c.AggressiveDefault())

	c = &Config{}
	assert.True(t, c.AggressiveDefault())

	no := false
	c = &Config{Aggressive: &no}
	assert.False(t, c.AggressiveDefault())
}

func TestConfigStyleFallsBackToZealousDiff3(t *testing.T) {
	var c *Config
	assert.Equal(t, diferenco.STYLE_ZEALOUS_DIFF3, c.Style())

	c = &Config{ConflictStyle: "diff3"}
	assert.Equal(t, diferenco.ParseConflictStyle("diff3"), c.Style())
}

func TestConfigOverwritePrefersOverlay(t *testing.T) {
	base := &Config{ConflictStyle: "merge", Tool: "internal"}
	no := false
	overlay := &Config{Tool: "kdiff3", Aggressive: &no}

	base.Overwrite(overlay)
	assert.Equal(t, "merge", base.ConflictStyle)
	assert.Equal(t, "kdiff3", base.Tool)
	require.NotNil(t, base.Aggressive)
	assert.False(t, *base.Aggressive)
}

func TestLoadConfigMissingPathReadsAsEmpty(t *testing.T) {
	t.Setenv(envConfigPath, filepath.Join(t.TempDir(), "does-not-exist.toml"))
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoadConfigUnsetReadsAsEmpty(t *testing.T) {
	require.NoError(t, os.Unsetenv(envConfigPath))
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoadConfigDecodesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merge.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
conflictStyle = "diff3"
aggressive = false
tool = "kdiff3"
toolArgs = ["--merge"]
`), 0o644))
	t.Setenv(envConfigPath, path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "diff3", cfg.ConflictStyle)
	require.NotNil(t, cfg.Aggressive)
	assert.False(t, *cfg.Aggressive)
	assert.Equal(t, "kdiff3", cfg.Tool)
	assert.Equal(t, []string{"--merge"}, cfg.ToolArgs)
}

func TestConfigTextDriverReturnsDriver(t *testing.T) {
	c := &Config{ConflictStyle: "diff3"}
	driver := c.TextDriver()
	require.NotNil(t, driver)
}
