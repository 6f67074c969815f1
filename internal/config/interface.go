package config

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths, translates it into the
	// format-agnostic model, and returns a matching Converter.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// Converter is the bridge between configuration values and the Go types used
// by modules.
type Converter interface {
	// Decode populates target, a pointer to a struct with `cty` field tags,
	// from an object value. Attributes without a matching field are an error;
	// fields without a matching attribute keep their current value.
	Decode(ctx context.Context, val cty.Value, target any) error

	// ToCtyValue converts a native Go value (like a handler's output struct)
	// into its equivalent cty.Value.
	ToCtyValue(v any) (cty.Value, error)
}
