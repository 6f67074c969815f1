// Package table is the in-memory tabular model shared by every stage of the
// flight pipeline. A Table is an ordered list of rows over a Schema of typed
// columns; cells are nullable. Tables are values: no operation mutates its
// receiver.
package table
