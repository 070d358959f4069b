package suitejson_test

import (
	"encoding/json"
	"errors"
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/suitejson"
)

// suiteNode builds a host suite with the default accessors.
func suiteNode(fields map[string]any) map[string]any {
	node := map[string]any{
		"title":   "",
		"pending": false,
		"root":    false,
		"timeout": func() int { return 2000 },
		"slow":    func() int { return 75 },
		"retries": func() int { return 0 },
	}
	maps.Copy(node, fields)

	return node
}

// testNode builds a host test with the default accessors.
func testNode(fields map[string]any) map[string]any {
	node := map[string]any{
		"type":         suitejson.TypeTest,
		"pending":      false,
		"timeout":      func() int { return 2000 },
		"slow":         func() int { return 75 },
		"retries":      func() int { return 0 },
		"currentRetry": func() int { return 0 },
	}
	maps.Copy(node, fields)

	return node
}

func hookNode(fields map[string]any) map[string]any {
	node := testNode(fields)
	node["type"] = suitejson.TypeHook

	return node
}

func visit(t *testing.T, caps suitejson.Capabilities, root any) string {
	t.Helper()

	out, err := suitejson.NewVisitor(caps).Visit(root)
	require.NoError(t, err)

	data, err := json.Marshal(out)
	require.NoError(t, err)

	return string(data)
}

func TestVisitSingleTest(t *testing.T) {
	t.Parallel()

	root := suiteNode(map[string]any{
		"root":  true,
		"tests": []any{testNode(map[string]any{"title": "adds", "state": "passed", "duration": 3})},
	})

	got := visit(t, suitejson.Capabilities{PendingHasState: true}, root)

	want := `{"title":"","pending":false,"root":true,"timeout":2000,"slow":75,"retries":0,` +
		`"tests":[{"title":"adds","pending":false,"type":"test","duration":3,"state":"passed",` +
		`"timeout":2000,"slow":75,"retries":0,"currentRetry":0}]}`
	assert.Equal(t, want, got)
}

func TestVisitChildOrder(t *testing.T) {
	t.Parallel()

	root := suiteNode(map[string]any{
		"root":      true,
		"suites":    []any{suiteNode(map[string]any{"title": "child"})},
		"tests":     []any{testNode(map[string]any{"title": "t"})},
		"afterAll":  []any{hookNode(map[string]any{"title": `"after all" hook`})},
		"beforeAll": []any{hookNode(map[string]any{"title": `"before all" hook`})},
		"afterEach": []any{},
	})

	out, err := suitejson.NewVisitor(suitejson.Capabilities{}).Visit(root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"title", "pending", "root", "timeout", "slow", "retries",
		suitejson.KeyBeforeAll, suitejson.KeyAfterAll, suitejson.KeyTests, suitejson.KeySuites,
	}, out.Keys())
}

func TestVisitPendingSuppression(t *testing.T) {
	t.Parallel()

	unreached := testNode(map[string]any{"title": "todo", "pending": true})
	reached := testNode(map[string]any{"title": "skipped", "pending": true, "state": "pending"})
	pendingHook := hookNode(map[string]any{"title": "hook", "pending": true})

	tests := []struct {
		name  string
		caps  suitejson.Capabilities
		tests []any
		want  []string
	}{
		{
			name:  "modern host drops unreached pending tests",
			caps:  suitejson.Capabilities{PendingHasState: true},
			tests: []any{unreached, reached},
			want:  []string{"skipped"},
		},
		{
			name:  "legacy host keeps them",
			caps:  suitejson.Capabilities{},
			tests: []any{unreached, reached},
			want:  []string{"todo", "skipped"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := suiteNode(map[string]any{
				"root":       true,
				"tests":      tt.tests,
				"beforeEach": []any{pendingHook},
			})

			out, err := suitejson.NewVisitor(tt.caps).Visit(root)
			require.NoError(t, err)

			hooks, ok := out.Get(suitejson.KeyBeforeEach)
			require.True(t, ok, "hooks are never suppressed")
			assert.Len(t, hooks, 1)

			list, ok := out.Get(suitejson.KeyTests)
			require.True(t, ok)

			var titles []string
			for _, item := range list.([]any) {
				title, _ := item.(*suitejson.Object).Get("title")
				titles = append(titles, title.(string))
			}

			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestVisitOmitsFullySuppressedList(t *testing.T) {
	t.Parallel()

	root := suiteNode(map[string]any{
		"root":  true,
		"tests": []any{testNode(map[string]any{"title": "todo", "pending": true})},
	})

	out, err := suitejson.NewVisitor(suitejson.Capabilities{PendingHasState: true}).Visit(root)
	require.NoError(t, err)

	assert.False(t, out.Has(suitejson.KeyTests))
}

func TestVisitFailurePayload(t *testing.T) {
	t.Parallel()

	cyclic := map[string]any{"reason": "loop"}
	cyclic["self"] = cyclic

	root := suiteNode(map[string]any{
		"root": true,
		"tests": []any{
			testNode(map[string]any{"title": "errors", "state": "failed", "err": errors.New("boom")}),
			testNode(map[string]any{"title": "throws", "state": "failed", "err": cyclic}),
		},
	})

	out, err := suitejson.NewVisitor(suitejson.Capabilities{}).Visit(root)
	require.NoError(t, err)

	list, _ := out.Get(suitejson.KeyTests)
	tests := list.([]any)
	require.Len(t, tests, 2)

	first, _ := tests[0].(*suitejson.Object).Get(suitejson.KeyErr)
	firstErr := first.(*suitejson.Object)
	msg, _ := firstErr.Get("message")
	name, _ := firstErr.Get("constructorName")
	assert.Equal(t, "boom", msg)
	assert.Equal(t, "Error", name)

	second, _ := tests[1].(*suitejson.Object).Get(suitejson.KeyErr)
	data, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, `{"reason":"loop","self":"[object Object]"}`, string(data))
}

func TestVisitContractError(t *testing.T) {
	t.Parallel()

	root := suiteNode(map[string]any{
		"root":  true,
		"tests": []any{map[string]any{"title": "bare"}},
	})

	_, err := suitejson.NewVisitor(suitejson.Capabilities{}).Visit(root)
	require.ErrorIs(t, err, suitejson.ErrContract)
	assert.Contains(t, err.Error(), "tests[0]")
}

func TestVisitRootWithoutChildren(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields map[string]any
	}{
		{name: "no lists", fields: map[string]any{"root": true}},
		{name: "empty suites", fields: map[string]any{"root": true, "suites": []any{}}},
		{name: "empty tests and suites", fields: map[string]any{"root": true, "tests": []any{}, "suites": []any{}}},
		{name: "nil suites", fields: map[string]any{"root": true, "suites": []any(nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := visit(t, suitejson.Capabilities{PendingHasState: true}, suiteNode(tt.fields))
			assert.Equal(t, `{"title":"","pending":false,"root":true,"timeout":2000,"slow":75,"retries":0}`, got)
		})
	}
}
