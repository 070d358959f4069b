package suitejson_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/rlch/suitejson"
)

func TestParseOptionString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  map[string]any
	}{
		{name: "empty", input: "", want: map[string]any{}},
		{name: "pairs", input: "stats=off,space=4", want: map[string]any{"stats": "off", "space": "4"}},
		{name: "flag", input: "stats", want: map[string]any{"stats": "true"}},
		{name: "whitespace", input: " stats = no , space=2 ", want: map[string]any{"stats": "no", "space": "2"}},
		{name: "quoted", input: `title="a, b",space=0`, want: map[string]any{"title": "a, b", "space": "0"}},
		{name: "last wins", input: "space=2,space=8", want: map[string]any{"space": "8"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := suitejson.ParseOptionString(tt.input)
			require.NoError(t, err)

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseOptionString(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParseOptionStringErrors(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"=x", "a=b=c", "a,,b"} {
		_, err := suitejson.ParseOptionString(input)
		require.Error(t, err, "ParseOptionString(%q)", input)
	}
}

func TestMergeOptionStrings(t *testing.T) {
	t.Parallel()

	got, err := suitejson.MergeOptionStrings(map[string]any{"stats": true, "space": 2}, "space=4", "stats=off")
	require.NoError(t, err)

	want := map[string]any{"stats": "off", "space": "4"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergeOptionStrings mismatch (-want +got):\n%s", diff)
	}

	_, err = suitejson.MergeOptionStrings(nil, "=bad")
	require.Error(t, err)
}
