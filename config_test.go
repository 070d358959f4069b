package suitejson_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/suitejson"
)

func TestLoadConfigWalksUp(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	nested := filepath.Join(tmpDir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	configYAML := `
reporterOptions:
  stats: false
  space: 4
spec:
  - suites
output: results.json
failFast: true
grep: math
progress: verbose
`

	err := os.WriteFile(filepath.Join(tmpDir, ".suitejson.yaml"), []byte(configYAML), 0o644)
	require.NoError(t, err)

	path, err := suitejson.FindConfig(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, ".suitejson.yaml"), path)

	cfg, err := suitejson.LoadConfig(nested)
	require.NoError(t, err)

	assert.Equal(t, []string{"suites"}, cfg.Spec)
	assert.Equal(t, "results.json", cfg.Output)
	assert.True(t, cfg.FailFast)
	assert.Equal(t, "math", cfg.Grep)
	assert.Equal(t, "verbose", cfg.Progress)

	opts := cfg.Options()
	assert.False(t, opts.IncludeStats)
	assert.Equal(t, 4, opts.Indent)
}

func TestLoadConfigFileInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".suitejson.yaml")
	require.NoError(t, os.WriteFile(path, []byte("spec: [unclosed"), 0o644))

	_, err := suitejson.LoadConfigFile(path)
	require.Error(t, err)
}

func TestNilConfigOptions(t *testing.T) {
	t.Parallel()

	var cfg *suitejson.Config

	assert.Equal(t, suitejson.DefaultOptions().Indent, cfg.Options().Indent)
	assert.True(t, cfg.Options().IncludeStats)
}
