package suitejson_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/suitejson"
)

type fakeTest struct {
	Title   string `json:"title"`
	Body    string `json:"body,omitempty"`
	Pending bool   `json:"pending"`
	State   string `json:"state,omitempty"`
	Secret  string `json:"-"`
}

func (fakeTest) Timeout() int { return 2000 }
func (fakeTest) Slow() int    { return 75 }

func TestProjectStruct(t *testing.T) {
	t.Parallel()

	node := &fakeTest{Title: "adds", Secret: "hidden"}

	out, err := suitejson.Project(node, []string{"title", "body", "pending", "state", "secret"}, []string{"timeout", "slow"})
	require.NoError(t, err)

	data, err := out.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"title":"adds","pending":false,"timeout":2000,"slow":75}`, string(data))
}

func TestProjectMap(t *testing.T) {
	t.Parallel()

	node := map[string]any{
		"title":   "x",
		"extra":   1,
		"file":    nil,
		"timeout": func() int { return 5 },
		"slow":    func() any { return nil },
	}

	out, err := suitejson.Project(node, []string{"title", "file", "missing"}, []string{"timeout", "slow"})
	require.NoError(t, err)

	data, err := out.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"title":"x","timeout":5}`, string(data))
}

func TestProjectEmbeddedStruct(t *testing.T) {
	t.Parallel()

	loc := Location{File: "x.go", Line: 3}
	fields := []string{"name", "file", "where"}

	out, err := suitejson.Project(promoted{Name: "a", Location: loc}, fields, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "file"}, out.Keys())

	out, err = suitejson.Project(tagged{Name: "a", Location: loc}, fields, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "where"}, out.Keys())
}

func TestProjectContractViolations(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")

	tests := []struct {
		name string
		node map[string]any
		kind string
	}{
		{name: "missing accessor", node: map[string]any{}, kind: "undefined"},
		{name: "not a function", node: map[string]any{"timeout": 5}, kind: "int"},
		{name: "takes arguments", node: map[string]any{"timeout": func(int) int { return 0 }}, kind: "func(int) int"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := suitejson.Project(tt.node, nil, []string{"timeout"})
			require.ErrorIs(t, err, suitejson.ErrContract)

			var ce *suitejson.ContractError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, "timeout", ce.Field)
			assert.Equal(t, tt.kind, ce.Kind)
		})
	}

	t.Run("accessor error", func(t *testing.T) {
		t.Parallel()

		node := map[string]any{"timeout": func() (int, error) { return 0, errBoom }}

		_, err := suitejson.Project(node, nil, []string{"timeout"})
		require.ErrorIs(t, err, errBoom)
		assert.NotErrorIs(t, err, suitejson.ErrContract)
	})
}
