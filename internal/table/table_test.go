package table

import (
	"testing"

	"github.com/specialistvlad/flightgrid/internal/etlerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Equal(t *testing.T) {
	assert.True(t, Str("a").Equal(Str("a")))
	assert.False(t, Str("1").Equal(Int(1)), "kinds differ")
	assert.False(t, Null().Equal(Null()), "null never equals null")
	assert.True(t, Null().Identical(Null()))
	assert.True(t, Int(7).Equal(Int(7)))
}

func TestValue_Compare(t *testing.T) {
	assert.Negative(t, Null().Compare(Str("a")))
	assert.Negative(t, Int(2).Compare(Int(10)))
	assert.Negative(t, Str("Aruba").Compare(Str("France")))
	assert.Zero(t, Str("x").Compare(Str("x")))
	assert.Positive(t, Str("b").Compare(Int(1)))
	assert.Negative(t, Int(99).Compare(Str("0")), "int64 values sort before strings")
	assert.Negative(t, Null().Compare(Int(-5)))
}

func TestValue_Cast(t *testing.T) {
	v, err := Str(" 42 ").Cast(Int64)
	require.NoError(t, err)
	n, ok := v.AsInt64()
	require.True(t, ok)
	assert.Equal(t, int64(42), n)

	_, err = Str("x42").Cast(Int64)
	assert.Error(t, err)

	_, err = Null().Cast(Int64)
	assert.Error(t, err)

	v, err = Null().Cast(String)
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	v, err = Int(-3).Cast(String)
	require.NoError(t, err)
	assert.Equal(t, "-3", v.Text())
}

func TestNew_Validation(t *testing.T) {
	schema := Schema{{Name: "id", Type: Int64}, {Name: "name", Type: String}}

	_, err := New(schema, [][]Value{{Int(1)}})
	assert.ErrorIs(t, err, etlerr.ErrMalformedInput)

	_, err = New(schema, [][]Value{{Str("1"), Str("a")}})
	assert.ErrorIs(t, err, etlerr.ErrMalformedInput)

	_, err = New(Schema{{Name: "a"}, {Name: "a"}}, nil)
	assert.ErrorIs(t, err, etlerr.ErrMalformedInput)

	tbl, err := New(schema, [][]Value{{Int(1), Null()}})
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
}

func TestTable_DropProjectFilter(t *testing.T) {
	tbl := MustNew(
		Schema{{Name: "a"}, {Name: "b"}, {Name: "c"}},
		[][]Value{
			{Str("1"), Str("x"), Str("keep")},
			{Str("2"), Str("y"), Null()},
		},
	)

	dropped := tbl.DropColumns("b", "not_there")
	assert.Equal(t, []string{"a", "c"}, dropped.Schema().Names())
	assert.Equal(t, []string{"a", "b", "c"}, tbl.Schema().Names(), "receiver is unchanged")

	projected, err := tbl.Project("c", "a")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"c", "a"}, {"keep", "1"}, {"", "2"}}, projected.Records())

	_, err = tbl.Project("zzz")
	assert.ErrorIs(t, err, etlerr.ErrMalformedInput)

	c := tbl.ColumnIndex("c")
	kept := tbl.Filter(func(row []Value) bool { return !row[c].IsNull() })
	assert.Equal(t, 1, kept.Len())
	assert.Equal(t, 2, tbl.Len())
}

func TestTable_Conform(t *testing.T) {
	raw := MustNew(
		Schema{{Name: "name"}, {Name: "id"}, {Name: "extra"}},
		[][]Value{
			{Str("Aerocondor"), Str("10"), Str("z")},
			{Str("Air Aruba"), Str("2"), Null()},
		},
	)

	typed, err := raw.Conform(Schema{{Name: "id", Type: Int64}, {Name: "name", Type: String}})
	require.NoError(t, err)
	assert.Equal(t, Schema{{Name: "id", Type: Int64}, {Name: "name", Type: String}}, typed.Schema())
	id, _ := typed.Cell(1, 0).AsInt64()
	assert.Equal(t, int64(2), id)

	bad := MustNew(Schema{{Name: "id"}}, [][]Value{{Str("1")}, {Str("one")}})
	_, err = bad.Conform(Schema{{Name: "id", Type: Int64}})
	require.ErrorIs(t, err, etlerr.ErrCastFailure)
	var e *etlerr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "id", e.Column)
	assert.Equal(t, 1, e.Row)
}

func TestTable_Equal(t *testing.T) {
	a := MustNew(Schema{{Name: "x"}}, [][]Value{{Null()}, {Str("1")}})
	b := MustNew(Schema{{Name: "x"}}, [][]Value{{Null()}, {Str("1")}})
	c := MustNew(Schema{{Name: "x"}}, [][]Value{{Str("1")}, {Null()}})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c), "row order matters")
}
