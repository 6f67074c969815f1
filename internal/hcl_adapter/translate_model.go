// This file contains the logic for translating HCL schema structs into the
// format-agnostic configuration model defined in the config package.

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/specialistvlad/flightgrid/internal/config"
	"github.com/specialistvlad/flightgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// translateTask converts the HCL-specific task schema into the agnostic
// model. Argument expressions are evaluated without variables: a task's
// arguments are literals.
func (l *Loader) translateTask(ctx context.Context, t *TaskBlock) (*config.Task, error) {
	logger := ctxlog.FromContext(ctx).With("task_kind", t.Kind, "task_name", t.Name)
	logger.Debug("Translating HCL task to internal config model.")

	task := &config.Task{
		Kind:      t.Kind,
		Name:      t.Name,
		Arguments: cty.NilVal,
		DependsOn: t.DependsOn,
	}
	if t.Arguments == nil || t.Arguments.Body == nil {
		return task, nil
	}

	attrs, diags := t.Arguments.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("task %s: arguments: %w", task.ID(), diags)
	}
	values := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("task %s: argument %q: %w", task.ID(), name, diags)
		}
		values[name] = val
	}
	task.Arguments = cty.ObjectVal(values)
	logger.Debug("Task arguments evaluated.", "count", len(values))
	return task, nil
}

// translateStorage converts a storage block into the agnostic model.
func translateStorage(s *StorageBlock) *config.Storage {
	out := &config.Storage{Type: s.Type}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&out.Path, s.Path)
	set(&out.Bucket, s.Bucket)
	set(&out.Prefix, s.Prefix)
	set(&out.Region, s.Region)
	set(&out.Endpoint, s.Endpoint)
	set(&out.Addr, s.Addr)
	set(&out.Database, s.Database)
	set(&out.Username, s.Username)
	set(&out.Password, s.Password)
	if s.Secure != nil {
		out.Secure = *s.Secure
	}
	return out
}
