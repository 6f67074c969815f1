package clickhousestore

import (
	"testing"

	"github.com/specialistvlad/flightgrid/internal/table"
	"github.com/stretchr/testify/assert"
)

var goldSchema = table.Schema{
	{Name: "airline", Type: table.String},
	{Name: "num_of_routes", Type: table.Int64},
}

func TestCreateTableSQL(t *testing.T) {
	assert.Equal(t,
		"CREATE TABLE `routes_per_airline_gold` (`_row` UInt64, `airline` Nullable(String), `num_of_routes` Nullable(Int64)) ENGINE = MergeTree ORDER BY `_row`",
		CreateTableSQL("routes_per_airline_gold", goldSchema))
}

func TestInsertAndSelectSQL(t *testing.T) {
	assert.Equal(t,
		"INSERT INTO `routes_per_airline_gold` (`_row`, `airline`, `num_of_routes`)",
		InsertSQL("routes_per_airline_gold", goldSchema))
	assert.Equal(t,
		"SELECT `airline`, `num_of_routes` FROM `routes_per_airline_gold` ORDER BY `_row`",
		SelectSQL("routes_per_airline_gold", goldSchema))
}

func TestParseColumnType(t *testing.T) {
	assert.Equal(t, table.Int64, parseColumnType("Nullable(Int64)"))
	assert.Equal(t, table.Int64, parseColumnType("UInt32"))
	assert.Equal(t, table.String, parseColumnType("Nullable(String)"))
	assert.Equal(t, table.String, parseColumnType("LowCardinality(String)"))
}

func TestToNullable(t *testing.T) {
	n, ok := toNullable(table.Int(7), table.Int64).(*int64)
	assert.True(t, ok)
	assert.Equal(t, int64(7), *n)

	assert.Nil(t, toNullable(table.Null(), table.Int64).(*int64))
	assert.Nil(t, toNullable(table.Null(), table.String).(*string))

	s, ok := toNullable(table.Str("x"), table.String).(*string)
	assert.True(t, ok)
	assert.Equal(t, "x", *s)
}
