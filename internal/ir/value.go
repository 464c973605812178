package ir

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// DefaultVarCharLength is the bound used when a Go string is mapped to a
// column type without an explicit length.
const DefaultVarCharLength = 255

// Type is a sealed interface over the logical column types.
// Only IntegerType, VarCharType, BooleanType, TextType and UUIDType implement it,
// so every dialect can switch over the full set.
type Type interface {
	irType() // Sealed - only these types implement it
	String() string
}

// IntegerType is a 32-bit signed integer column.
type IntegerType struct{}

func (IntegerType) irType() {}

func (IntegerType) String() string { return "INTEGER" }

// VarCharType is a bounded-length string column.
type VarCharType struct {
	Length int
}

func (VarCharType) irType() {}

func (t VarCharType) String() string { return fmt.Sprintf("VARCHAR(%d)", t.Length) }

// BooleanType is a boolean column.
type BooleanType struct{}

func (BooleanType) irType() {}

func (BooleanType) String() string { return "BOOLEAN" }

// TextType is an unbounded string column.
type TextType struct{}

func (TextType) irType() {}

func (TextType) String() string { return "TEXT" }

// UUIDType is a 128-bit UUID column.
type UUIDType struct{}

func (UUIDType) irType() {}

func (UUIDType) String() string { return "UUID" }

// Value is a sealed interface carrying exactly one native scalar.
// There is no NULL variant: an absent value is a nil Value in a Row slot.
type Value interface {
	irValue() // Sealed - only these types implement it
	// Type reports the native mapping of the value's kind, as TypeOf does.
	// It is not derived from the value: every VarChar is VARCHAR(255).
	Type() Type
	// Arg returns the value in the form handed to a database/sql driver.
	Arg() any
	String() string
}

// Integer is a 32-bit signed integer value.
type Integer int32

func (Integer) irValue() {}

func (Integer) Type() Type { return IntegerType{} }

func (v Integer) Arg() any { return int64(v) }

func (v Integer) String() string { return strconv.FormatInt(int64(v), 10) }

// VarChar is a bounded string value.
type VarChar string

func (VarChar) irValue() {}

func (VarChar) Type() Type { return VarCharType{Length: DefaultVarCharLength} }

func (v VarChar) Arg() any { return string(v) }

func (v VarChar) String() string { return string(v) }

// Boolean is a boolean value.
type Boolean bool

func (Boolean) irValue() {}

func (Boolean) Type() Type { return BooleanType{} }

func (v Boolean) Arg() any { return bool(v) }

func (v Boolean) String() string { return strconv.FormatBool(bool(v)) }

// Text is an unbounded string value.
type Text string

func (Text) irValue() {}

func (Text) Type() Type { return TextType{} }

func (v Text) Arg() any { return string(v) }

func (v Text) String() string { return string(v) }

// UUID is a UUID value. Drivers receive the canonical hyphenated form.
type UUID uuid.UUID

func (UUID) irValue() {}

func (UUID) Type() Type { return UUIDType{} }

func (v UUID) Arg() any { return uuid.UUID(v).String() }

func (v UUID) String() string { return uuid.UUID(v).String() }

// Native is the closed set of Go scalars that map onto a Value.
type Native interface {
	int32 | string | bool | uuid.UUID
}

// ValueOf converts a native scalar to its Value. The conversion is total.
func ValueOf[T Native](v T) Value {
	switch x := any(v).(type) {
	case int32:
		return Integer(x)
	case string:
		return VarChar(x)
	case bool:
		return Boolean(x)
	case uuid.UUID:
		return UUID(x)
	}
	panic(fmt.Sprintf("ir: unhandled native type %T", v))
}

// TypeOf returns the column type a native scalar maps to.
func TypeOf[T Native]() Type {
	var zero T
	switch any(zero).(type) {
	case int32:
		return IntegerType{}
	case string:
		return VarCharType{Length: DefaultVarCharLength}
	case bool:
		return BooleanType{}
	case uuid.UUID:
		return UUIDType{}
	}
	panic(fmt.Sprintf("ir: unhandled native type %T", zero))
}

// As converts a Value back to a native scalar.
//
// The conversion is partial and fails with a CONVERSION_ERROR when the
// stored variant is not assignment-compatible with T. Widening rules:
//   - bool also accepts Integer (nonzero is true); int32 never accepts Boolean
//   - string accepts VarChar and Text
//   - uuid.UUID also accepts VarChar/Text holding a parseable UUID
func As[T Native](v Value) (T, error) {
	var zero T
	if v == nil {
		return zero, NewConversionError("cannot convert absent value to %T", zero)
	}

	var out any
	switch any(zero).(type) {
	case int32:
		if i, ok := v.(Integer); ok {
			out = int32(i)
		}
	case string:
		switch s := v.(type) {
		case VarChar:
			out = string(s)
		case Text:
			out = string(s)
		}
	case bool:
		switch b := v.(type) {
		case Boolean:
			out = bool(b)
		case Integer:
			out = b != 0
		}
	case uuid.UUID:
		switch u := v.(type) {
		case UUID:
			out = uuid.UUID(u)
		case VarChar:
			if parsed, err := uuid.Parse(string(u)); err == nil {
				out = parsed
			}
		case Text:
			if parsed, err := uuid.Parse(string(u)); err == nil {
				out = parsed
			}
		}
	}

	if out == nil {
		return zero, NewConversionError("cannot convert %T(%s) to %T", v, v, zero)
	}
	return out.(T), nil
}

// Option converts an optional native scalar to a Row slot.
// A nil pointer becomes an absent (nil) slot.
func Option[T Native](p *T) Value {
	if p == nil {
		return nil
	}
	return ValueOf(*p)
}

// AsOption converts a Row slot back to an optional native scalar.
// An absent slot yields a nil pointer and no error.
func AsOption[T Native](v Value) (*T, error) {
	if v == nil {
		return nil, nil
	}
	out, err := As[T](v)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Compare orders two values of the same kind using native scalar semantics.
// Returns -1, 0 or 1. Values of different kinds (or absent values) do not
// have an order and produce a CONVERSION_ERROR.
func Compare(a, b Value) (int, error) {
	switch x := a.(type) {
	case Integer:
		if y, ok := b.(Integer); ok {
			return cmpOrdered(x, y), nil
		}
	case VarChar:
		if y, ok := b.(VarChar); ok {
			return cmpOrdered(x, y), nil
		}
	case Text:
		if y, ok := b.(Text); ok {
			return cmpOrdered(x, y), nil
		}
	case Boolean:
		if y, ok := b.(Boolean); ok {
			switch {
			case x == y:
				return 0, nil
			case !bool(x):
				return -1, nil
			default:
				return 1, nil
			}
		}
	case UUID:
		if y, ok := b.(UUID); ok {
			return cmpOrdered(x.String(), y.String()), nil
		}
	}
	return 0, NewConversionError("cannot compare %T with %T", a, b)
}

func cmpOrdered[T ~int32 | ~string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Some converts a native scalar to a present Row slot.
func Some[T Native](v T) Value {
	return ValueOf(v)
}

// Equal compares two Row slots. Two absent slots are equal.
func Equal(a, b Value) bool {
	return a == b
}
