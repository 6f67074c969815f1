package hcl_adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type decodeTarget struct {
	Entity  string            `cty:"entity,required"`
	Source  string            `cty:"source"`
	Workers int               `cty:"workers"`
	Columns []string          `cty:"columns"`
	Labels  map[string]string `cty:"labels"`
	Limit   *int64            `cty:"limit"`
	Raw     cty.Value         `cty:"raw"`
}

func TestDecode(t *testing.T) {
	val := cty.ObjectVal(map[string]cty.Value{
		"entity":  cty.StringVal("route"),
		"workers": cty.StringVal("3"),
		"columns": cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")}),
		"labels":  cty.ObjectVal(map[string]cty.Value{"team": cty.StringVal("data")}),
		"limit":   cty.NumberIntVal(10),
		"raw":     cty.True,
	})

	target := decodeTarget{Source: "default_source"}
	require.NoError(t, NewConverter().Decode(context.Background(), val, &target))

	limit := int64(10)
	assert.Equal(t, decodeTarget{
		Entity:  "route",
		Source:  "default_source",
		Workers: 3,
		Columns: []string{"a", "b"},
		Labels:  map[string]string{"team": "data"},
		Limit:   &limit,
		Raw:     cty.True,
	}, target)
}

func TestDecode_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		val      cty.Value
		expected string
	}{
		{
			name:     "missing required",
			val:      cty.NilVal,
			expected: `missing required argument "entity"`,
		},
		{
			name: "unsupported argument",
			val: cty.ObjectVal(map[string]cty.Value{
				"entity": cty.StringVal("route"),
				"zeta":   cty.True,
				"alpha":  cty.True,
			}),
			expected: "unsupported argument(s): alpha, zeta",
		},
		{
			name: "wrong primitive type",
			val: cty.ObjectVal(map[string]cty.Value{
				"entity":  cty.StringVal("route"),
				"workers": cty.StringVal("many"),
			}),
			expected: `in argument "workers"`,
		},
		{
			name:     "not an object",
			val:      cty.StringVal("route"),
			expected: "type mismatch",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var target decodeTarget
			err := NewConverter().Decode(context.Background(), tc.val, &target)
			assert.ErrorContains(t, err, tc.expected)
		})
	}
}

func TestDecode_RejectsNonStructTarget(t *testing.T) {
	var s string
	err := NewConverter().Decode(context.Background(), cty.EmptyObjectVal, &s)
	assert.Error(t, err)
}

func TestToCtyValue(t *testing.T) {
	type output struct {
		Table string `cty:"table"`
		Rows  int    `cty:"rows"`
	}

	val, err := NewConverter().ToCtyValue(output{Table: "routes_silver", Rows: 4})
	require.NoError(t, err)
	assert.Equal(t, "routes_silver", val.GetAttr("table").AsString())
	rows, _ := val.GetAttr("rows").AsBigFloat().Int64()
	assert.Equal(t, int64(4), rows)

	val, err = NewConverter().ToCtyValue(nil)
	require.NoError(t, err)
	assert.Equal(t, cty.NilVal, val)
}
