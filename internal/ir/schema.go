package ir

import (
	"fmt"
	"strings"
)

// ColumnProperty is a sealed interface over per-column constraints.
// Only PrimaryKey, NotNull, Unique and Default implement it.
type ColumnProperty interface {
	columnProperty() // Sealed - only these types implement it
}

// PrimaryKey marks an engine-generated key column.
// Primary key columns are never part of an INSERT column list.
type PrimaryKey struct{}

func (PrimaryKey) columnProperty() {}

// NotNull forbids absent values in the column.
type NotNull struct{}

func (NotNull) columnProperty() {}

// Unique forbids duplicate values in the column.
type Unique struct{}

func (Unique) columnProperty() {}

// Default is the literal used when an inserted row leaves the column absent.
type Default struct {
	Value Value
}

func (Default) columnProperty() {}

// DefaultOf builds a Default property from a native scalar.
func DefaultOf[T Native](v T) Default {
	return Default{Value: ValueOf(v)}
}

// Column describes one column of a table.
//
// Properties are kept in declaration order and are not deduplicated:
// conflicting declarations are passed to the engine, which rejects them.
type Column struct {
	Name       string
	Type       Type
	Properties []ColumnProperty
}

// HasDefault reports whether any property is a Default.
func (c Column) HasDefault() bool {
	_, ok := c.DefaultValue()
	return ok
}

// DefaultValue returns the value of the first Default property.
func (c Column) DefaultValue() (Value, bool) {
	for _, p := range c.Properties {
		if d, ok := p.(Default); ok {
			return d.Value, true
		}
	}
	return nil, false
}

// IsPrimaryKey reports whether any property is PrimaryKey.
func (c Column) IsPrimaryKey() bool {
	for _, p := range c.Properties {
		if _, ok := p.(PrimaryKey); ok {
			return true
		}
	}
	return false
}

// IsNotNull reports whether any property is NotNull.
func (c Column) IsNotNull() bool {
	for _, p := range c.Properties {
		if _, ok := p.(NotNull); ok {
			return true
		}
	}
	return false
}

func (c Column) String() string {
	return c.Name
}

// Table describes a table's shape.
//
// Column order is significant: it is the positional alignment used by
// inserts, select results and model mapping. Tables are values; a schema
// change means building a new Table.
type Table struct {
	Name    string
	Columns []Column
}

// ColumnIndex returns the position of the named column.
func (t Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// ColumnNames returns the column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Validate checks the table is structurally usable by a dialect.
// Every problem is reported in a single MALFORMED_QUERY_IR error.
func (t Table) Validate() error {
	var problems []string

	if !ValidIdentifier(t.Name) {
		problems = append(problems, fmt.Sprintf("invalid table name %q", t.Name))
	}
	if len(t.Columns) == 0 {
		problems = append(problems, fmt.Sprintf("table %q has no columns", t.Name))
	}

	seen := make(map[string]bool, len(t.Columns))
	for i, c := range t.Columns {
		if !ValidIdentifier(c.Name) {
			problems = append(problems, fmt.Sprintf("column %d: invalid name %q", i, c.Name))
		}
		if seen[c.Name] {
			problems = append(problems, fmt.Sprintf("column %d: duplicate name %q", i, c.Name))
		}
		seen[c.Name] = true
		if c.Type == nil {
			problems = append(problems, fmt.Sprintf("column %q: missing type", c.Name))
		}
	}

	if len(problems) > 0 {
		return NewMalformedError("%s", strings.Join(problems, "; "))
	}
	return nil
}

// String renders the table as a small two-line grid of names and types.
func (t Table) String() string {
	width := 0
	for _, c := range t.Columns {
		width = max(width, len(c.Name))
		if c.Type != nil {
			width = max(width, len(c.Type.String()))
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "TABLE: %s\n", t.Name)
	for _, c := range t.Columns {
		fmt.Fprintf(&sb, "| %-*s ", width, c.Name)
	}
	sb.WriteString("|\n")
	for _, c := range t.Columns {
		typeName := "?"
		if c.Type != nil {
			typeName = c.Type.String()
		}
		fmt.Fprintf(&sb, "| %-*s ", width, typeName)
	}
	sb.WriteString("|\n")
	return sb.String()
}

// Row is an ordered list of optional values aligned to a table's columns.
// A nil slot is an absent value.
type Row []Value

// Width returns the number of slots.
func (r Row) Width() int {
	return len(r)
}

// Equal reports whether two rows hold the same values slot for slot.
func (r Row) Equal(other Row) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if !Equal(r[i], other[i]) {
			return false
		}
	}
	return true
}
