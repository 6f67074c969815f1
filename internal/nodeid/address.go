package nodeid

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex matches a single kind or name segment.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// Address is the structured representation of a unique node identifier.
type Address struct {
	Kind string
	Name string
}

// New validates both segments and returns the address.
func New(kind, name string) (Address, error) {
	if !segmentRegex.MatchString(kind) {
		return Address{}, fmt.Errorf("invalid kind %q", kind)
	}
	if !segmentRegex.MatchString(name) {
		return Address{}, fmt.Errorf("invalid name %q", name)
	}
	return Address{Kind: kind, Name: name}, nil
}

// Parse creates an Address from its canonical `kind.name` form.
func Parse(rawID string) (Address, error) {
	if rawID == "" {
		return Address{}, fmt.Errorf("identifier cannot be empty")
	}
	kind, name, ok := strings.Cut(rawID, ".")
	if !ok {
		return Address{}, fmt.Errorf("identifier %q must have the form kind.name", rawID)
	}
	addr, err := New(kind, name)
	if err != nil {
		return Address{}, fmt.Errorf("identifier %q: %w", rawID, err)
	}
	return addr, nil
}

// MustParse is Parse for identifiers known at compile time.
func MustParse(rawID string) Address {
	addr, err := Parse(rawID)
	if err != nil {
		panic(err)
	}
	return addr
}

// String serializes the Address into its canonical string representation.
func (a Address) String() string {
	if a.IsZero() {
		return ""
	}
	return a.Kind + "." + a.Name
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a.Kind == "" && a.Name == ""
}

// Compare orders addresses by kind, then name.
func (a Address) Compare(b Address) int {
	if c := strings.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}
