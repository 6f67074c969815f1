// Package transform holds the two table-level operations of the pipeline:
// cleaning a raw table into its typed form, and joining two cleaned tables
// into a grouped count.
package transform
