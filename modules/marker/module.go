// Package marker implements the `marker` task kind: a barrier task that
// announces a pipeline phase. It does no data work; its place in the graph
// is what matters.
package marker

import (
	"context"
	"fmt"

	"github.com/specialistvlad/flightgrid/internal/ctxlog"
	"github.com/specialistvlad/flightgrid/internal/handlers"
)

// Kind is the task kind this module handles.
const Kind = "marker"

// Module implements the handlers.Module interface for this package.
type Module struct{}

// Input defines the arguments for a marker task.
type Input struct {
	Message string `cty:"message,required"`
}

// Output echoes the announced message.
type Output struct {
	Message string `cty:"message"`
}

// Announce writes the message to the run's output and the log.
func Announce(ctx context.Context, deps *handlers.Deps, input *Input) (*Output, error) {
	ctxlog.FromContext(ctx).Info("📣 " + input.Message)
	if deps.Out != nil {
		if _, err := fmt.Fprintln(deps.Out, input.Message); err != nil {
			return nil, fmt.Errorf("failed to write marker message: %w", err)
		}
	}
	return &Output{Message: input.Message}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *handlers.Handlers) {
	r.RegisterHandler(Kind, &handlers.RegisteredHandler{
		NewInput: func() any { return new(Input) },
		Fn:       Announce,
	})
}
