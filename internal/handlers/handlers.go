// Package handlers holds the Go functions that execute each task kind.
// A Handlers value is built per run; nothing is registered globally.
package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"slices"

	"github.com/specialistvlad/flightgrid/internal/storage"
)

// Deps are the run-scoped resources every handler receives.
type Deps struct {
	// Store is the tabular storage all tables are read from and written to.
	Store storage.Store
	// Out receives human-facing task output such as marker messages.
	Out io.Writer
}

// Module is implemented by every package under modules/.
type Module interface {
	Register(r *Handlers)
}

// Handlers holds all the registered handlers
type Handlers struct {
	all map[string]*RegisteredHandler
}

// New creates and initializes a new Handlers instance.
func New() *Handlers {
	return &Handlers{
		all: make(map[string]*RegisteredHandler),
	}
}

// RegisteredHandler holds the compiled Go parts of a task kind.
type RegisteredHandler struct {
	// NewInput returns a pointer to a fresh, defaulted input struct whose
	// fields carry `cty` tags.
	NewInput func() any
	// Fn has the signature
	//   func(ctx context.Context, deps *Deps, input *Input) (*Output, error)
	// where *Input is the type NewInput returns.
	Fn any
	// Produces, if set, names the tables a task with the given decoded
	// input writes. It feeds the "tables not produced" part of a failed
	// run's report.
	Produces func(input any) []string
	// CheckInput, if set, validates a decoded input beyond its types. It
	// runs for every task before the run starts.
	CheckInput func(input any) error
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	depsType    = reflect.TypeOf((*Deps)(nil))
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Validate checks that Fn matches the handler signature and NewInput.
func (h *RegisteredHandler) Validate() error {
	if h.NewInput == nil || h.Fn == nil {
		return fmt.Errorf("NewInput and Fn are required")
	}
	fn := reflect.TypeOf(h.Fn)
	if fn.Kind() != reflect.Func || fn.NumIn() != 3 || fn.NumOut() != 2 {
		return fmt.Errorf("handler must be func(context.Context, *handlers.Deps, *Input) (*Output, error), got %s", fn)
	}
	if fn.In(0) != contextType || fn.In(1) != depsType {
		return fmt.Errorf("handler must take (context.Context, *handlers.Deps, ...), got %s", fn)
	}
	if in := reflect.TypeOf(h.NewInput()); fn.In(2) != in {
		return fmt.Errorf("handler input is %s but NewInput returns %s", fn.In(2), in)
	}
	if fn.Out(1) != errorType {
		return fmt.Errorf("handler must return error as its second result, got %s", fn.Out(1))
	}
	return nil
}

// Call invokes Fn through reflection and returns its native output.
func (h *RegisteredHandler) Call(ctx context.Context, deps *Deps, input any) (any, error) {
	results := reflect.ValueOf(h.Fn).Call([]reflect.Value{
		reflect.ValueOf(ctx),
		reflect.ValueOf(deps),
		reflect.ValueOf(input),
	})
	var out any
	if !isNil(results[0]) {
		out = results[0].Interface()
	}
	if errResult := results[1].Interface(); errResult != nil {
		return out, errResult.(error)
	}
	return out, nil
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return false
}

// RegisterHandler registers the handler for a task kind. It panics on
// duplicates and malformed handlers, which are programming errors.
func (r *Handlers) RegisterHandler(kind string, handler *RegisteredHandler) {
	if _, exists := r.all[kind]; exists {
		panic(fmt.Sprintf("handler for task kind '%s' already registered", kind))
	}
	if err := handler.Validate(); err != nil {
		panic(fmt.Sprintf("handler for task kind '%s': %v", kind, err))
	}
	slog.Debug("Registering task handler.", "kind", kind)
	r.all[kind] = handler
}

// Get returns the handler for a task kind.
func (r *Handlers) Get(kind string) (*RegisteredHandler, bool) {
	h, ok := r.all[kind]
	return h, ok
}

// Kinds returns the registered task kinds, sorted.
func (r *Handlers) Kinds() []string {
	kinds := make([]string, 0, len(r.all))
	for k := range r.all {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
