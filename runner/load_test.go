package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

const mathYAML = `
title: Math
env:
  x: 2
timeout: 500ms
slow: 100
beforeEach:
  - "{y: x * 2}"
  - name: named
    body: "{z: 1}"
tests:
  - title: doubles
    body: y == 4 && z == 1
  - title: todo
  - title: skipped
    body: "true"
    skip: true
suites:
  - title: nested
    retries: 2
    tests:
      - title: inner
        body: x == 2
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "math.suite.yaml", mathYAML)

	root, err := Load(path)
	require.NoError(t, err)
	require.True(t, root.Root)
	require.Len(t, root.Suites, 1)

	s := root.Suites[0]
	assert.Equal(t, "Math", s.Title)
	assert.Equal(t, path, s.File)
	assert.Equal(t, int64(500), s.Timeout())
	assert.Equal(t, int64(100), s.Slow())

	require.Len(t, s.BeforeEach, 2)
	assert.Equal(t, `"before each" hook`, s.BeforeEach[0].Title)
	assert.Equal(t, `"before each" hook: named`, s.BeforeEach[1].Title)
	assert.Equal(t, HookBeforeEach, s.BeforeEach[1].Kind())

	require.Len(t, s.Tests, 3)
	assert.False(t, s.Tests[0].Pending)
	assert.True(t, s.Tests[1].Pending)
	assert.True(t, s.Tests[2].Pending)
	assert.Equal(t, path, s.Tests[0].File)

	require.Len(t, s.Suites, 1)
	nested := s.Suites[0]
	assert.Same(t, s, nested.Parent)
	assert.Equal(t, 2, nested.Retries())
	assert.Equal(t, int64(500), nested.Tests[0].Timeout())
	assert.Equal(t, []string{"Math", "nested", "inner"}, nested.Tests[0].FullTitle())
}

func TestLoadAndRun(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "math.suite.yaml", mathYAML)

	root, err := Load(path)
	require.NoError(t, err)

	run, err := New().Run(context.Background(), root)
	require.NoError(t, err)

	stats := run.Summary()
	assert.True(t, run.Ok(), "failure: %v", root.Suites[0].Tests[0].Err)
	assert.Equal(t, 2, stats.Passes)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 2, stats.Suites)
}

func TestLoadDefaultTitle(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "calc.suite.yml", "tests:\n  - title: one\n    body: \"1 == 1\"\n")

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "calc", s.Title)
}

func TestLoadDurations(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tests := []struct {
		name    string
		value   string
		want    int64
		wantErr bool
	}{
		{name: "milliseconds", value: "250", want: 250},
		{name: "duration string", value: "1.5s", want: 1500},
		{name: "invalid", value: "soon", wantErr: true},
	}

	for _, tt := range tests {
		path := writeFile(t, dir, tt.name+".suite.yaml", "timeout: "+tt.value+"\n")

		s, err := LoadFile(path)
		if tt.wantErr {
			require.ErrorIs(t, err, ErrInvalidSuiteFile, tt.name)
			continue
		}

		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, s.Timeout(), tt.name)
	}
}

func TestLoadCombinesErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := writeFile(t, dir, "good.suite.yaml", mathYAML)
	bad := writeFile(t, dir, "bad.suite.yaml", "tests: [unclosed")
	missing := filepath.Join(dir, "missing.suite.yaml")

	_, err := Load(good, bad, missing)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidSuiteFile)
	assert.Len(t, multierr.Errors(err), 2)
}
