package executor

import (
	"fmt"
	"strings"
)

// TaskFailure is one task that ran and failed, with its root cause.
type TaskFailure struct {
	Task string
	Err  error
}

// RunError describes a run in which at least one task did not succeed.
type RunError struct {
	// Failed lists tasks whose handler ran and failed, in topological order.
	Failed []TaskFailure
	// DependencyFailed lists tasks skipped because a predecessor failed.
	DependencyFailed []string
	// NotStarted lists tasks never launched because the run was cancelled
	// or stopped early.
	NotStarted []string
	// MissingTables lists tables that tasks which did not succeed would
	// have written.
	MissingTables []string
}

// OK reports whether the run had no unsuccessful task.
func (e *RunError) OK() bool {
	return len(e.Failed) == 0 && len(e.DependencyFailed) == 0 && len(e.NotStarted) == 0
}

func (e *RunError) Error() string {
	var parts []string
	if len(e.Failed) > 0 {
		failed := make([]string, len(e.Failed))
		for i, f := range e.Failed {
			failed[i] = fmt.Sprintf("%s: %v", f.Task, f.Err)
		}
		parts = append(parts, fmt.Sprintf("%d task(s) failed (%s)", len(e.Failed), strings.Join(failed, "; ")))
	}
	if len(e.DependencyFailed) > 0 {
		parts = append(parts, fmt.Sprintf("%d task(s) skipped after a failed dependency (%s)", len(e.DependencyFailed), strings.Join(e.DependencyFailed, ", ")))
	}
	if len(e.NotStarted) > 0 {
		parts = append(parts, fmt.Sprintf("%d task(s) not started (%s)", len(e.NotStarted), strings.Join(e.NotStarted, ", ")))
	}
	if len(e.MissingTables) > 0 {
		parts = append(parts, fmt.Sprintf("tables not produced: %s", strings.Join(e.MissingTables, ", ")))
	}
	return "run failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes every root cause to errors.Is and errors.As.
func (e *RunError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		errs = append(errs, f.Err)
	}
	return errs
}
