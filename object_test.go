package suitejson_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/suitejson"
)

func TestObjectKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	obj := suitejson.NewObject()
	obj.Set("z", 1)
	obj.Set("a", 2)
	obj.Set("m", 3)
	obj.Set("z", 4)

	assert.Equal(t, []string{"z", "a", "m"}, obj.Keys())

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"z":4,"a":2,"m":3}`, string(data))

	v, ok := obj.Get("m")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.False(t, obj.Has("missing"))
	assert.Equal(t, 3, obj.Len())

	members := obj.Members()
	members[0].Value = 0
	assert.Equal(t, []suitejson.Member{{Key: "z", Value: 4}, {Key: "a", Value: 2}, {Key: "m", Value: 3}}, obj.Members())
}

func TestObjectDoesNotEscapeHTML(t *testing.T) {
	t.Parallel()

	obj := suitejson.NewObject()
	obj.Set("body", "a < b && c > d")

	data, err := obj.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"body":"a < b && c > d"}`, string(data))
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "ordered object", input: `{"z":1,"a":{"y":true,"b":null},"l":[1,"x",2.5]}`},
		{name: "array", input: `[{"b":1,"a":2},[]]`},
		{name: "scalar", input: `"text"`},
		{name: "empty object", input: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, err := suitejson.Decode([]byte(tt.input))
			require.NoError(t, err)

			data, err := json.Marshal(v)
			require.NoError(t, err)
			assert.Equal(t, tt.input, string(data))
		})
	}
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	t.Parallel()

	_, err := suitejson.Decode([]byte(`{} {}`))
	require.Error(t, err)
}

func TestObjectUnmarshalJSON(t *testing.T) {
	t.Parallel()

	var obj suitejson.Object

	require.NoError(t, json.Unmarshal([]byte(`{"b":1,"a":2}`), &obj))
	assert.Equal(t, []string{"b", "a"}, obj.Keys())

	require.Error(t, json.Unmarshal([]byte(`[1]`), &obj))
}
