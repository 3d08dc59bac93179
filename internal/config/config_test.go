package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "assigngen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
marker:
  package: example.com/override
  function: Patch
  fields: Set
tags:
  - generate
write: true
exclude:
  - "*_gen.go"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	marker := cfg.InvocationMarker()
	assert.Equal(t, "example.com/override", marker.PkgPath)
	assert.Equal(t, "Patch", marker.Func)
	assert.Equal(t, "Set", marker.Fields)
	assert.Equal(t, []string{"generate"}, cfg.Tags)
	assert.True(t, cfg.Write)
	assert.True(t, cfg.Excluded("/src/profile/options_gen.go"))
	assert.False(t, cfg.Excluded("/src/profile/options.go"))
}

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	// An empty path with no .assigngen.yaml in the working directory
	// falls back to defaults.
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"assign"}, cfg.Tags)
	assert.Equal(t, "assigngen/assign", cfg.InvocationMarker().PkgPath)
	assert.Equal(t, "With", cfg.InvocationMarker().Func)
	assert.Equal(t, "Fields", cfg.InvocationMarker().Fields)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_PartialMarkerRejected(t *testing.T) {
	path := writeConfig(t, `
marker:
  package: example.com/override
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marker")
}

func TestLoad_BadExcludePattern(t *testing.T) {
	path := writeConfig(t, `
exclude:
  - "[unclosed"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exclude")
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "marker: [not: a: mapping")

	_, err := Load(path)
	assert.Error(t, err)
}
