package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Name    *string         `hcl:"name,optional"`
	Storage []*StorageBlock `hcl:"storage,block"`
	Tasks   []*TaskBlock    `hcl:"task,block"`
	Remain  hcl.Body        `hcl:",remain"`
}

// StorageBlock represents a `storage "<type>" { ... }` block.
type StorageBlock struct {
	Type     string  `hcl:"type,label"`
	Path     *string `hcl:"path,optional"`
	Bucket   *string `hcl:"bucket,optional"`
	Prefix   *string `hcl:"prefix,optional"`
	Region   *string `hcl:"region,optional"`
	Endpoint *string `hcl:"endpoint,optional"`
	Addr     *string `hcl:"addr,optional"`
	Database *string `hcl:"database,optional"`
	Username *string `hcl:"username,optional"`
	Password *string `hcl:"password,optional"`
	Secure   *bool   `hcl:"secure,optional"`
}

// TaskArgs represents the content of the 'arguments' block within a task.
type TaskArgs struct {
	Body hcl.Body `hcl:",remain"`
}

// TaskBlock represents a `task "<kind>" "<name>" { ... }` block.
type TaskBlock struct {
	Kind      string    `hcl:"kind,label"`
	Name      string    `hcl:"name,label"`
	Arguments *TaskArgs `hcl:"arguments,block"`
	DependsOn []string  `hcl:"depends_on,optional"`
}
