package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/specialistvlad/flightgrid/internal/etlerr"
	"github.com/specialistvlad/flightgrid/internal/table"
)

// Local stores each table as <dir>/<name>.csv.
type Local struct {
	dir string
}

// NewLocal returns a store rooted at dir. The directory is created on the
// first write.
func NewLocal(dir string) *Local {
	return &Local{dir: dir}
}

// Path returns the file backing the named table.
func (l *Local) Path(name string) string {
	return filepath.Join(l.dir, name+".csv")
}

func (l *Local) Read(_ context.Context, name string) (*table.Table, error) {
	f, err := os.Open(l.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, etlerr.NotFound(name, err)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	t, err := table.DecodeCSV(f)
	if err != nil {
		return nil, etlerr.WithTable(err, name)
	}
	return t, nil
}

// Write encodes into a temporary file in the same directory and renames it
// over the target, so readers never see a partial table.
func (l *Local) Write(_ context.Context, name string, t *table.Table) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return etlerr.WriteFailure(name, err)
	}
	tmp, err := os.CreateTemp(l.dir, "."+name+"-*.csv")
	if err != nil {
		return etlerr.WriteFailure(name, err)
	}
	defer os.Remove(tmp.Name())

	if err := table.EncodeCSV(tmp, t); err != nil {
		tmp.Close()
		return etlerr.WriteFailure(name, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return etlerr.WriteFailure(name, err)
	}
	if err := tmp.Close(); err != nil {
		return etlerr.WriteFailure(name, err)
	}
	if err := os.Rename(tmp.Name(), l.Path(name)); err != nil {
		return etlerr.WriteFailure(name, err)
	}
	return nil
}

func (l *Local) Close() error { return nil }
