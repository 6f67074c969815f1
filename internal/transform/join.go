package transform

import (
	"slices"

	"github.com/specialistvlad/flightgrid/internal/etlerr"
	"github.com/specialistvlad/flightgrid/internal/table"
)

// ColumnRef names a column of a joined table. Table is the side alias used
// to qualify columns whose names collide.
type ColumnRef struct {
	Table  string
	Column string
}

func (r ColumnRef) String() string {
	if r.Table == "" {
		return r.Column
	}
	return r.Table + "." + r.Column
}

// Resolve returns the index of the referenced column in schema, preferring
// the qualified name.
func (r ColumnRef) Resolve(schema table.Schema) (int, error) {
	if r.Table != "" {
		if i := schema.Index(r.String()); i >= 0 {
			return i, nil
		}
	}
	if i := schema.Index(r.Column); i >= 0 {
		return i, nil
	}
	return -1, etlerr.Malformed("", "column %s not present in %s", r, schema)
}

// InnerJoin keeps every (left, right) pair whose key values are equal. Rows
// come out in left order, and for one left row in right order. Null keys
// never match. Column names present on both sides are qualified with their
// side's alias.
func InnerJoin(left, right *table.Table, leftAlias, rightAlias, leftKey, rightKey string) (*table.Table, error) {
	ls, rs := left.Schema(), right.Schema()
	li, ri := ls.Index(leftKey), rs.Index(rightKey)
	if li < 0 {
		return nil, etlerr.Malformed("", "join key %q not present on %s side", leftKey, leftAlias)
	}
	if ri < 0 {
		return nil, etlerr.Malformed("", "join key %q not present on %s side", rightKey, rightAlias)
	}
	if ls[li].Type != rs[ri].Type {
		return nil, etlerr.Malformed("", "join key types differ: %s.%s is %s, %s.%s is %s",
			leftAlias, leftKey, ls[li].Type, rightAlias, rightKey, rs[ri].Type)
	}
	if leftAlias == rightAlias {
		return nil, etlerr.Malformed("", "join sides share alias %q", leftAlias)
	}

	schema := joinedSchema(ls, rs, leftAlias, rightAlias)

	index := make(map[any][]int, right.Len())
	for r := 0; r < right.Len(); r++ {
		if k, ok := right.Cell(r, ri).Key(); ok {
			index[k] = append(index[k], r)
		}
	}

	var rows [][]table.Value
	for l := 0; l < left.Len(); l++ {
		k, ok := left.Cell(l, li).Key()
		if !ok {
			continue
		}
		matches := index[k]
		if len(matches) == 0 {
			continue
		}
		lrow := left.Row(l)
		for _, r := range matches {
			rows = append(rows, append(slices.Clone(lrow), right.Row(r)...))
		}
	}
	return table.New(schema, rows)
}

func joinedSchema(ls, rs table.Schema, leftAlias, rightAlias string) table.Schema {
	collides := make(map[string]bool)
	for _, c := range ls {
		if rs.Index(c.Name) >= 0 {
			collides[c.Name] = true
		}
	}
	out := make(table.Schema, 0, len(ls)+len(rs))
	for _, c := range ls {
		if collides[c.Name] {
			c.Name = leftAlias + "." + c.Name
		}
		out = append(out, c)
	}
	for _, c := range rs {
		if collides[c.Name] {
			c.Name = rightAlias + "." + c.Name
		}
		out = append(out, c)
	}
	return out
}

// GroupCount counts rows per distinct value of the referenced column. The
// result has one row per group, sorted ascending by group value with the
// null group first.
func GroupCount(t *table.Table, by ColumnRef, groupColumn, countColumn string) (*table.Table, error) {
	schema := t.Schema()
	gi, err := by.Resolve(schema)
	if err != nil {
		return nil, err
	}

	type group struct {
		value table.Value
		count int64
	}
	var (
		groups []*group
		byKey  = make(map[any]*group)
		null   *group
	)
	for r := 0; r < t.Len(); r++ {
		v := t.Cell(r, gi)
		k, ok := v.Key()
		if !ok {
			if null == nil {
				null = &group{value: v}
				groups = append(groups, null)
			}
			null.count++
			continue
		}
		g, seen := byKey[k]
		if !seen {
			g = &group{value: v}
			byKey[k] = g
			groups = append(groups, g)
		}
		g.count++
	}

	slices.SortFunc(groups, func(a, b *group) int { return a.value.Compare(b.value) })

	rows := make([][]table.Value, len(groups))
	for i, g := range groups {
		rows[i] = []table.Value{g.value, table.Int(g.count)}
	}
	return table.New(table.Schema{
		{Name: groupColumn, Type: schema[gi].Type},
		{Name: countColumn, Type: table.Int64},
	}, rows)
}

// Side is one input of a join.
type Side struct {
	Alias  string
	Key    string
	Schema table.Schema
}

// JoinSpec describes one join-then-count aggregate.
type JoinSpec struct {
	Name        string
	Left        Side
	Right       Side
	GroupBy     ColumnRef
	GroupColumn string
	CountColumn string
}

// JoinStats summarises one JoinAggregate call.
type JoinStats struct {
	JoinedRows int
	Groups     int
}

// JoinAggregate re-applies each side's declared schema, joins the sides and
// counts rows per group.
func JoinAggregate(left, right *table.Table, spec JoinSpec) (*table.Table, JoinStats, error) {
	var stats JoinStats

	l, err := left.Conform(spec.Left.Schema)
	if err != nil {
		return nil, stats, etlerr.WithTable(err, spec.Left.Alias)
	}
	r, err := right.Conform(spec.Right.Schema)
	if err != nil {
		return nil, stats, etlerr.WithTable(err, spec.Right.Alias)
	}

	joined, err := InnerJoin(l, r, spec.Left.Alias, spec.Right.Alias, spec.Left.Key, spec.Right.Key)
	if err != nil {
		return nil, stats, err
	}
	stats.JoinedRows = joined.Len()

	out, err := GroupCount(joined, spec.GroupBy, spec.GroupColumn, spec.CountColumn)
	if err != nil {
		return nil, stats, err
	}
	stats.Groups = out.Len()
	return out, stats, nil
}
