package hcl_adapter

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/specialistvlad/flightgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// fieldTag is a parsed `cty:"name,required"` struct tag.
type fieldTag struct {
	name     string
	required bool
}

func parseFieldTag(f reflect.StructField) (fieldTag, bool) {
	raw := f.Tag.Get("cty")
	name, opts, _ := strings.Cut(raw, ",")
	if name == "" || name == "-" {
		return fieldTag{}, false
	}
	return fieldTag{name: name, required: slices.Contains(strings.Split(opts, ","), "required")}, true
}

// decode is a recursive function that populates a Go value from a cty.Value.
// The target Go type decides the cty type each value is converted to.
func (c *Converter) decode(ctx context.Context, val cty.Value, goVal any) error {
	goPtr := reflect.ValueOf(goVal).Elem()
	goType := goPtr.Type()
	logger := ctxlog.FromContext(ctx).With("go_kind", goType.Kind().String())

	// A cty.Value target takes the value as is.
	if goType == reflect.TypeOf(cty.Value{}) {
		if val.IsKnown() {
			goPtr.Set(reflect.ValueOf(val))
		}
		return nil
	}

	if !val.IsKnown() {
		return fmt.Errorf("value is not known")
	}
	if val.IsNull() && goType.Kind() != reflect.Struct {
		logger.Debug("Skipping decode for null value.")
		return nil
	}

	switch goType.Kind() {
	case reflect.Struct:
		return c.decodeStruct(ctx, val, goPtr)

	case reflect.Pointer:
		elem := reflect.New(goType.Elem())
		if err := c.decode(ctx, val, elem.Interface()); err != nil {
			return err
		}
		goPtr.Set(elem)
		return nil

	case reflect.Slice:
		ty := val.Type()
		if !ty.IsListType() && !ty.IsTupleType() && !ty.IsSetType() {
			return fmt.Errorf("type mismatch: cannot decode cty.%s into Go slice %s", ty.FriendlyName(), goType.String())
		}
		newSlice := reflect.MakeSlice(goType, val.LengthInt(), val.LengthInt())
		it := val.ElementIterator()
		for i := 0; it.Next(); i++ {
			_, elemVal := it.Element()
			if err := c.decode(ctx, elemVal, newSlice.Index(i).Addr().Interface()); err != nil {
				return fmt.Errorf("in slice element %d: %w", i, err)
			}
		}
		goPtr.Set(newSlice)
		return nil

	case reflect.Map:
		ty := val.Type()
		if goType.Key().Kind() != reflect.String || (!ty.IsMapType() && !ty.IsObjectType()) {
			return fmt.Errorf("type mismatch: cannot decode cty.%s into Go map %s", ty.FriendlyName(), goType.String())
		}
		newMap := reflect.MakeMapWithSize(goType, val.LengthInt())
		it := val.ElementIterator()
		for it.Next() {
			key, elemVal := it.Element()
			elem := reflect.New(goType.Elem())
			if err := c.decode(ctx, elemVal, elem.Interface()); err != nil {
				return fmt.Errorf("in map element %q: %w", key.AsString(), err)
			}
			newMap.SetMapIndex(reflect.ValueOf(key.AsString()).Convert(goType.Key()), elem.Elem())
		}
		goPtr.Set(newMap)
		return nil

	default: // Base cases for primitives (string, int, bool, float64, etc.)
		want, err := gocty.ImpliedType(goPtr.Interface())
		if err != nil {
			return fmt.Errorf("cannot imply cty type for %s: %w", goType.String(), err)
		}
		converted, err := convert.Convert(val, want)
		if err != nil {
			return fmt.Errorf("cannot convert value of type %s to %s: %w", val.Type().FriendlyName(), want.FriendlyName(), err)
		}
		return gocty.FromCtyValue(converted, goVal)
	}
}

// decodeStruct maps object attributes onto `cty`-tagged fields. Attributes
// without a field are rejected; fields without an attribute keep their value
// unless tagged required.
func (c *Converter) decodeStruct(ctx context.Context, val cty.Value, goPtr reflect.Value) error {
	goType := goPtr.Type()
	if val.IsNull() {
		val = cty.EmptyObjectVal
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return fmt.Errorf("type mismatch: cannot decode cty value of type %s into Go struct %s", val.Type().FriendlyName(), goType.String())
	}

	attrs := val.AsValueMap()
	known := make(map[string]struct{}, goType.NumField())

	for i := 0; i < goType.NumField(); i++ {
		fieldDef := goType.Field(i)
		fieldVal := goPtr.Field(i)
		if !fieldDef.IsExported() || !fieldVal.CanSet() {
			continue
		}
		tag, ok := parseFieldTag(fieldDef)
		if !ok {
			continue
		}
		known[tag.name] = struct{}{}

		attrVal, ok := attrs[tag.name]
		if !ok || attrVal.IsNull() {
			if tag.required {
				return fmt.Errorf("missing required argument %q", tag.name)
			}
			continue
		}
		if err := c.decode(ctx, attrVal, fieldVal.Addr().Interface()); err != nil {
			return fmt.Errorf("in argument %q: %w", tag.name, err)
		}
	}

	var unknown []string
	for name := range attrs {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return fmt.Errorf("unsupported argument(s): %s", strings.Join(unknown, ", "))
	}
	return nil
}
