// Package model defines how application record types map onto table rows.
//
// A type opts in by implementing Model. Mapping is positional: the i-th
// slot of a row is the i-th column of the model's table. No reflection is
// involved.
package model

import (
	"github.com/roach88/ezql/internal/ir"
)

// Model is a record type that describes its own table and converts to and
// from column-aligned rows.
//
// Table is called on a zero value and must not depend on receiver state.
// ColumnValues returns one slot per table column, nil for absent values.
// FromColumnValues fills the receiver from a full-width row and fails with
// a CONVERSION_ERROR when a slot cannot be coerced.
type Model interface {
	Table() ir.Table
	ColumnValues() ir.Row
	FromColumnValues(row ir.Row) error
}

// Pointer constrains PT to *T implementing Model, so generic code can build
// a fresh T and decode into it.
type Pointer[T any] interface {
	*T
	Model
}

// TableOf returns the table described by T's zero value.
func TableOf[T any, PT Pointer[T]]() ir.Table {
	var zero T
	return PT(&zero).Table()
}

// CheckArity fails with a CONVERSION_ERROR unless row has exactly one slot
// per table column.
func CheckArity(table ir.Table, row ir.Row) error {
	if len(row) != len(table.Columns) {
		return ir.NewConversionError("table %q has %d columns, row has %d values",
			table.Name, len(table.Columns), len(row))
	}
	return nil
}

// Field decodes the optional slot at position i.
// An absent slot yields nil; a missing position is a CONVERSION_ERROR.
func Field[T ir.Native](row ir.Row, i int) (*T, error) {
	if i < 0 || i >= len(row) {
		return nil, ir.NewConversionError("missing position %d in row of %d values", i, len(row))
	}
	return ir.AsOption[T](row[i])
}

// Required decodes the slot at position i and fails when it is absent.
func Required[T ir.Native](row ir.Row, i int) (T, error) {
	var zero T
	p, err := Field[T](row, i)
	if err != nil {
		return zero, err
	}
	if p == nil {
		return zero, ir.NewConversionError("position %d is absent", i)
	}
	return *p, nil
}

// Decode builds a T from a row, checking arity first.
func Decode[T any, PT Pointer[T]](row ir.Row) (T, error) {
	var out T
	if err := CheckArity(PT(&out).Table(), row); err != nil {
		return out, err
	}
	if err := PT(&out).FromColumnValues(row); err != nil {
		return out, err
	}
	return out, nil
}

// Encode returns m's row, checking arity against its table.
func Encode(m Model) (ir.Row, error) {
	row := m.ColumnValues()
	if err := CheckArity(m.Table(), row); err != nil {
		return nil, err
	}
	return row, nil
}
