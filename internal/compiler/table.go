package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/ezql/internal/ir"
)

// CompileTable parses a CUE value into a Table.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the table struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`table: users: { columns: [...] }`)
//	t, err := CompileTable(v.LookupPath(cue.ParsePath("table.users")))
//
// Columns are a list so that their order, which is the positional
// alignment of every row, is explicit in the source:
//
//	table: users: columns: [
//		{name: "id", type: "integer", primary_key: true},
//		{name: "name", type: "varchar", length: 255, not_null: true},
//		{name: "is_active", type: "boolean", default: false},
//	]
//
// Column properties are flags, so field order in the source is not kept.
// Each declared property is emitted once, in the order PRIMARY KEY,
// NOT NULL, UNIQUE, DEFAULT. Tables needing repeated or reordered
// properties are built as ir.Table values directly.
func CompileTable(v cue.Value) (*ir.Table, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	table := &ir.Table{}

	// Table name comes from the struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		table.Name = labels[len(labels)-1].String()
	}

	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return nil, &CompileError{
			Field:   "columns",
			Message: "columns is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := colsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		col, err := compileColumn(iter.Value(), i)
		if err != nil {
			return nil, err
		}
		table.Columns = append(table.Columns, col)
	}

	if len(table.Columns) == 0 {
		return nil, &CompileError{
			Field:   "columns",
			Message: "at least one column is required",
			Pos:     colsVal.Pos(),
		}
	}

	return table, nil
}

// CompileTables compiles every table under the top-level `table` field, in
// declaration order.
func CompileTables(v cue.Value) ([]ir.Table, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	tablesVal := v.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return nil, &CompileError{
			Field:   "table",
			Message: "no table definitions found",
			Pos:     v.Pos(),
		}
	}

	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var tables []ir.Table
	for iter.Next() {
		t, err := CompileTable(iter.Value())
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}
	return tables, nil
}

// CompileSource compiles CUE source text. filename is used in positions.
func CompileSource(filename string, src []byte) ([]ir.Table, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileTables(v)
}

// compileColumn extracts one column declaration.
func compileColumn(v cue.Value, index int) (ir.Column, error) {
	var spec columnSpec
	var err error

	if spec.Name, err = requiredString(v, "name"); err != nil {
		return ir.Column{}, err
	}
	if spec.Type, err = requiredString(v, "type"); err != nil {
		return ir.Column{}, err
	}

	if lv := v.LookupPath(cue.ParsePath("length")); lv.Exists() {
		n, err := lv.Int64()
		if err != nil {
			return ir.Column{}, formatCUEError(err)
		}
		spec.Length = int(n)
	}

	flags := []struct {
		field string
		dst   *bool
	}{
		{"primary_key", &spec.PrimaryKey},
		{"not_null", &spec.NotNull},
		{"unique", &spec.Unique},
	}
	for _, f := range flags {
		fv := v.LookupPath(cue.ParsePath(f.field))
		if !fv.Exists() {
			continue
		}
		b, err := fv.Bool()
		if err != nil {
			return ir.Column{}, formatCUEError(err)
		}
		*f.dst = b
	}

	dv := v.LookupPath(cue.ParsePath("default"))
	if dv.Exists() {
		spec.Default, err = extractScalar(dv)
		if err != nil {
			return ir.Column{}, err
		}
	}

	col, ferr := spec.build()
	if ferr != nil {
		return ir.Column{}, &CompileError{
			Field:   fmt.Sprintf("columns[%d].%s", index, ferr.field),
			Message: ferr.message,
			Pos:     v.Pos(),
		}
	}
	return col, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// extractScalar reads a concrete default literal.
// Floats are forbidden; the IR has no floating-point type.
func extractScalar(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.IntKind:
		return v.Int64()
	case cue.StringKind:
		return v.String()
	case cue.BoolKind:
		return v.Bool()
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{
			Field:   "default",
			Message: "float defaults are not supported",
			Pos:     v.Pos(),
		}
	default:
		return nil, &CompileError{
			Field:   "default",
			Message: fmt.Sprintf("default must be a concrete scalar, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
