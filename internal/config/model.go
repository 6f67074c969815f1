package config

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of the entire
// application configuration.
type Model struct {
	Storage  *Storage
	Pipeline *Pipeline
}

// Storage selects and configures the tabular backend. Only the fields
// relevant to Type are read.
type Storage struct {
	Type string

	// local, sqlite
	Path string

	// s3
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string

	// clickhouse
	Addr     string
	Database string
	Username string
	Password string
	Secure   bool
}

// Storage types understood by storage.Open.
const (
	StorageMemory     = "memory"
	StorageLocal      = "local"
	StorageS3         = "s3"
	StorageSQLite     = "sqlite"
	StorageClickHouse = "clickhouse"
)

// Validate checks that the fields required by Type are present.
func (s *Storage) Validate() error {
	switch s.Type {
	case StorageMemory:
	case StorageLocal, StorageSQLite:
		if s.Path == "" {
			return fmt.Errorf("%s storage requires a path", s.Type)
		}
	case StorageS3:
		if s.Bucket == "" {
			return fmt.Errorf("s3 storage requires a bucket")
		}
	case StorageClickHouse:
		if s.Addr == "" {
			return fmt.Errorf("clickhouse storage requires an address")
		}
	default:
		return fmt.Errorf("unknown storage type %q", s.Type)
	}
	return nil
}

// Pipeline is the user's task graph definition.
type Pipeline struct {
	Name  string
	Tasks []*Task
}

// Task is the format-agnostic representation of a `task` block.
type Task struct {
	// Kind selects the handler, e.g. "clean".
	Kind string
	// Name is unique within a Kind.
	Name string
	// Arguments is an object value, or cty.NilVal when the task has none.
	Arguments cty.Value
	// DependsOn lists predecessor addresses in `kind.name` form.
	DependsOn []string
}

// ID returns the task's `kind.name` address.
func (t *Task) ID() string {
	return t.Kind + "." + t.Name
}

// Merge appends the tasks of other to p.
func (p *Pipeline) Merge(other *Pipeline) {
	if other == nil {
		return
	}
	if p.Name == "" {
		p.Name = other.Name
	}
	p.Tasks = append(p.Tasks, other.Tasks...)
}
