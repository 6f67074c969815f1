/*
Package nodeid provides a structured, type-safe representation for node
identifiers within the system, based on the canonical format `kind.name`.

The kind selects the handler that runs the node (e.g. `clean`), the name
distinguishes nodes of the same kind (e.g. `clean.routes`).

This package enforces the identifier schema and centralizes all
formatting and parsing logic.
*/
package nodeid
