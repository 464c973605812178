package compiler

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/ezql/internal/ir"
)

// columnSpec is the source-format-neutral shape of one column declaration.
// Both the CUE and YAML front ends fill it in before building an ir.Column.
type columnSpec struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Length     int    `yaml:"length,omitempty"`
	PrimaryKey bool   `yaml:"primary_key,omitempty"`
	NotNull    bool   `yaml:"not_null,omitempty"`
	Unique     bool   `yaml:"unique,omitempty"`
	Default    any    `yaml:"default,omitempty"`
}

// fieldError names the offending field of a column declaration.
type fieldError struct {
	field   string
	message string
}

func (e *fieldError) Error() string {
	return e.field + ": " + e.message
}

// build turns the declaration into an ir.Column. Properties are emitted in
// a fixed order: PRIMARY KEY, NOT NULL, UNIQUE, DEFAULT.
func (s columnSpec) build() (ir.Column, *fieldError) {
	col := ir.Column{Name: s.Name}
	if s.Name == "" {
		return col, &fieldError{"name", "name is required"}
	}

	typ, ferr := parseType(s.Type, s.Length)
	if ferr != nil {
		return col, ferr
	}
	col.Type = typ

	if s.PrimaryKey {
		col.Properties = append(col.Properties, ir.PrimaryKey{})
	}
	if s.NotNull {
		col.Properties = append(col.Properties, ir.NotNull{})
	}
	if s.Unique {
		col.Properties = append(col.Properties, ir.Unique{})
	}
	if s.Default != nil {
		v, ferr := defaultValue(typ, s.Default)
		if ferr != nil {
			return col, ferr
		}
		col.Properties = append(col.Properties, ir.Default{Value: v})
	}
	return col, nil
}

// parseType maps a type keyword to an ir.Type. Keywords are case-insensitive.
func parseType(name string, length int) (ir.Type, *fieldError) {
	switch strings.ToLower(name) {
	case "integer", "int":
		return ir.IntegerType{}, nil
	case "varchar":
		if length <= 0 {
			return nil, &fieldError{"length", "varchar requires a positive length"}
		}
		return ir.VarCharType{Length: length}, nil
	case "boolean", "bool":
		return ir.BooleanType{}, nil
	case "text":
		return ir.TextType{}, nil
	case "uuid":
		return ir.UUIDType{}, nil
	case "":
		return nil, &fieldError{"type", "type is required"}
	case "float", "double", "real", "decimal":
		return nil, &fieldError{"type", fmt.Sprintf("float types are not supported: %q", name)}
	default:
		return nil, &fieldError{"type", fmt.Sprintf("unknown type %q", name)}
	}
}

// defaultValue converts a decoded scalar into a Value of the column's type.
func defaultValue(typ ir.Type, raw any) (ir.Value, *fieldError) {
	mismatch := func() *fieldError {
		return &fieldError{"default", fmt.Sprintf("%v (%T) is not a valid %s value", raw, raw, typ)}
	}

	switch typ.(type) {
	case ir.IntegerType:
		var n int64
		switch x := raw.(type) {
		case int:
			n = int64(x)
		case int64:
			n = x
		default:
			return nil, mismatch()
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, &fieldError{"default", fmt.Sprintf("%d does not fit a 32-bit integer", n)}
		}
		return ir.Integer(n), nil
	case ir.VarCharType:
		if s, ok := raw.(string); ok {
			return ir.VarChar(s), nil
		}
	case ir.TextType:
		if s, ok := raw.(string); ok {
			return ir.Text(s), nil
		}
	case ir.BooleanType:
		if b, ok := raw.(bool); ok {
			return ir.Boolean(b), nil
		}
	case ir.UUIDType:
		if s, ok := raw.(string); ok {
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, &fieldError{"default", fmt.Sprintf("invalid uuid %q: %v", s, err)}
			}
			return ir.UUID(id), nil
		}
	}
	return nil, mismatch()
}

// ValueFor converts a decoded YAML or CUE scalar into a Value of type typ.
// A nil raw value is an absent slot.
func ValueFor(typ ir.Type, raw any) (ir.Value, error) {
	if raw == nil {
		return nil, nil
	}
	v, ferr := defaultValue(typ, raw)
	if ferr != nil {
		return nil, errors.New(ferr.message)
	}
	return v, nil
}
