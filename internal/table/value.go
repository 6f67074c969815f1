package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is the declared type of a column.
type Type int

const (
	// String columns hold text values.
	String Type = iota
	// Int64 columns hold 64-bit signed integers.
	Int64
)

func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Int64:
		return "int64"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

type kind uint8

const (
	kindNull kind = iota
	kindInt64
	kindString
)

// Value is a single table cell: null, a string, or an int64.
type Value struct {
	kind kind
	str  string
	num  int64
}

// Null returns the missing value.
func Null() Value { return Value{} }

// Str returns a string value.
func Str(s string) Value { return Value{kind: kindString, str: s} }

// Int returns an int64 value.
func Int(n int64) Value { return Value{kind: kindInt64, num: n} }

// IsNull reports whether the value is missing.
func (v Value) IsNull() bool { return v.kind == kindNull }

// AsString returns the string payload and whether the value is a string.
func (v Value) AsString() (string, bool) { return v.str, v.kind == kindString }

// AsInt64 returns the int64 payload and whether the value is an int64.
func (v Value) AsInt64() (int64, bool) { return v.num, v.kind == kindInt64 }

// Is reports whether the value can be stored in a column of type t.
// Null fits every type.
func (v Value) Is(t Type) bool {
	switch v.kind {
	case kindNull:
		return true
	case kindString:
		return t == String
	case kindInt64:
		return t == Int64
	}
	return false
}

// Equal is kind-aware equality. Null never equals anything, including
// another null.
func (v Value) Equal(o Value) bool {
	if v.kind == kindNull || o.kind == kindNull || v.kind != o.kind {
		return false
	}
	if v.kind == kindString {
		return v.str == o.str
	}
	return v.num == o.num
}

// Identical is like Equal but treats two nulls as identical. It is used for
// table comparison, not for join semantics.
func (v Value) Identical(o Value) bool {
	if v.kind == kindNull && o.kind == kindNull {
		return true
	}
	return v.Equal(o)
}

// Compare orders values: null first, then int64 values, then strings.
func (v Value) Compare(o Value) int {
	if v.kind != o.kind {
		if v.kind < o.kind {
			return -1
		}
		return 1
	}
	switch v.kind {
	case kindString:
		return strings.Compare(v.str, o.str)
	case kindInt64:
		switch {
		case v.num < o.num:
			return -1
		case v.num > o.num:
			return 1
		}
	}
	return 0
}

// Key returns a comparable map key. Null values have no key.
func (v Value) Key() (any, bool) {
	switch v.kind {
	case kindString:
		return v.str, true
	case kindInt64:
		return v.num, true
	}
	return nil, false
}

// Text renders the value the way it is written to delimited text: null is
// the empty string.
func (v Value) Text() string {
	switch v.kind {
	case kindString:
		return v.str
	case kindInt64:
		return strconv.FormatInt(v.num, 10)
	}
	return ""
}

// String implements fmt.Stringer for logs and test failures.
func (v Value) String() string {
	if v.kind == kindNull {
		return "<null>"
	}
	return v.Text()
}

// Cast converts the value to type t. Strings are parsed when t is Int64
// (surrounding whitespace is ignored); int64 values are formatted when t is
// String. A null cast to Int64 fails: an integer column cannot hold a
// missing value once it is declared.
func (v Value) Cast(t Type) (Value, error) {
	switch t {
	case String:
		switch v.kind {
		case kindNull, kindString:
			return v, nil
		case kindInt64:
			return Str(strconv.FormatInt(v.num, 10)), nil
		}
	case Int64:
		switch v.kind {
		case kindInt64:
			return v, nil
		case kindNull:
			return Value{}, fmt.Errorf("missing value in %s column", t)
		case kindString:
			n, err := strconv.ParseInt(strings.TrimSpace(v.str), 10, 64)
			if err != nil {
				return Value{}, err
			}
			return Int(n), nil
		}
	}
	return Value{}, fmt.Errorf("unsupported cast to %s", t)
}
