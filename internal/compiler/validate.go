package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/ezql/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// Table errors (E101-E109)
	ErrInvalidTableName   = "E101" // table name is not a bare identifier
	ErrTableNoColumns     = "E102" // at least one column required
	ErrDuplicateTable     = "E103" // duplicate table name in one schema
	ErrMultiplePrimaryKey = "E104" // more than one primary key column

	// Column errors (E110-E119)
	ErrInvalidColumnName = "E110" // column name is not a bare identifier
	ErrDuplicateColumn   = "E111" // duplicate column name
	ErrMissingType       = "E112" // column has no type
	ErrInvalidLength     = "E113" // VARCHAR length must be positive
	ErrDefaultMismatch   = "E114" // default value does not match column type
	ErrPrimaryKeyDefault = "E115" // primary key columns are engine-generated
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is every problem found in one schema.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Validate checks compiled tables against schema rules.
// Returns all errors found (does not fail-fast).
func Validate(tables []ir.Table) ValidationErrors {
	var errs ValidationErrors

	seen := make(map[string]bool, len(tables))
	for i, t := range tables {
		// E103: duplicate table name
		if seen[t.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("tables[%d].name", i),
				Message: fmt.Sprintf("duplicate table name: %q", t.Name),
				Code:    ErrDuplicateTable,
			})
		}
		seen[t.Name] = true

		errs = append(errs, validateTable(t)...)
	}
	return errs
}

// validateTable checks a single table.
func validateTable(t ir.Table) ValidationErrors {
	var errs ValidationErrors
	prefix := fmt.Sprintf("table %s", t.Name)

	// E101: table name must be emitted bare
	if !ir.ValidIdentifier(t.Name) {
		errs = append(errs, ValidationError{
			Field:   prefix,
			Message: fmt.Sprintf("invalid table name %q", t.Name),
			Code:    ErrInvalidTableName,
		})
	}

	// E102: at least one column
	if len(t.Columns) == 0 {
		errs = append(errs, ValidationError{
			Field:   prefix,
			Message: "at least one column is required",
			Code:    ErrTableNoColumns,
		})
	}

	columnNames := make(map[string]bool, len(t.Columns))
	primaryKeys := 0
	for i, c := range t.Columns {
		field := fmt.Sprintf("%s.columns[%d]", prefix, i)

		// E110: column name
		if !ir.ValidIdentifier(c.Name) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("invalid column name %q", c.Name),
				Code:    ErrInvalidColumnName,
			})
		}

		// E111: duplicate column
		if columnNames[c.Name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate column name: %q", c.Name),
				Code:    ErrDuplicateColumn,
			})
		}
		columnNames[c.Name] = true

		errs = append(errs, validateColumnType(field, c)...)

		if c.IsPrimaryKey() {
			primaryKeys++
			// E115: primary keys are never inserted, so a default is dead
			if c.HasDefault() {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("primary key %q cannot have a default", c.Name),
					Code:    ErrPrimaryKeyDefault,
				})
			}
		}
	}

	// E104: one primary key at most
	if primaryKeys > 1 {
		errs = append(errs, ValidationError{
			Field:   prefix,
			Message: fmt.Sprintf("%d primary key columns, at most one allowed", primaryKeys),
			Code:    ErrMultiplePrimaryKey,
		})
	}

	return errs
}

// validateColumnType checks the type and that any default matches it.
func validateColumnType(field string, c ir.Column) ValidationErrors {
	var errs ValidationErrors

	// E112: missing type
	if c.Type == nil {
		return append(errs, ValidationError{
			Field:   field + ".type",
			Message: fmt.Sprintf("column %q has no type", c.Name),
			Code:    ErrMissingType,
		})
	}

	// E113: VARCHAR length
	if vc, ok := c.Type.(ir.VarCharType); ok && vc.Length <= 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".length",
			Message: fmt.Sprintf("VARCHAR length must be positive, got %d", vc.Length),
			Code:    ErrInvalidLength,
		})
	}

	// E114: default type
	if v, ok := c.DefaultValue(); ok && !defaultFits(c.Type, v) {
		errs = append(errs, ValidationError{
			Field:   field + ".default",
			Message: fmt.Sprintf("default %s is not a %s value", describe(v), c.Type),
			Code:    ErrDefaultMismatch,
		})
	}

	return errs
}

// defaultFits reports whether v can be stored in a column of type t.
// VARCHAR and TEXT columns accept either string variant.
func defaultFits(t ir.Type, v ir.Value) bool {
	if v == nil {
		return false
	}
	switch t.(type) {
	case ir.IntegerType:
		_, ok := v.(ir.Integer)
		return ok
	case ir.VarCharType, ir.TextType:
		switch v.(type) {
		case ir.VarChar, ir.Text:
			return true
		}
		return false
	case ir.BooleanType:
		_, ok := v.(ir.Boolean)
		return ok
	case ir.UUIDType:
		_, ok := v.(ir.UUID)
		return ok
	default:
		return false
	}
}

func describe(v ir.Value) string {
	if v == nil {
		return "<missing>"
	}
	return fmt.Sprintf("%T(%s)", v, v)
}
