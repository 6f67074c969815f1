// Package storage is the tabular I/O adapter. A Store reads and writes whole
// tables by name; every write is a total overwrite. Backends live in this
// package (memory, local CSV) and in subpackages (S3, SQLite, ClickHouse),
// which satisfy Store structurally so they do not import it.
package storage

import (
	"context"
	"fmt"
	"regexp"

	"github.com/specialistvlad/flightgrid/internal/table"
)

// Store is the contract shared by every backend.
type Store interface {
	// Read returns the named table. A missing table is etlerr.ErrNotFound;
	// unparseable content is etlerr.ErrMalformedInput.
	Read(ctx context.Context, name string) (*table.Table, error)
	// Write replaces the named table. Failures are etlerr.ErrWriteFailure.
	Write(ctx context.Context, name string, t *table.Table) error
	// Close releases connections held by the backend.
	Close() error
}

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateName rejects table names that are not plain identifiers. Names are
// used as file names, object keys and SQL identifiers.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}
