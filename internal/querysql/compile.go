package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/ezql/internal/ir"
	"github.com/roach88/ezql/internal/queryir"
)

// Dialect lowers the IR into engine-specific SQL.
//
// Every method is pure: no I/O, no shared state, safe for concurrent use.
// Structural problems are reported as MALFORMED_QUERY_IR before any SQL is
// produced; variants the dialect cannot express are UNSUPPORTED_CONSTRUCT.
type Dialect interface {
	Name() string

	TranslateType(t ir.Type) (string, error)
	TranslateValue(v ir.Value) (string, error)
	TranslateProperty(p ir.ColumnProperty) (string, error)
	TranslateOrderBy(o queryir.OrderBy) (string, error)
	TranslateWhereClause(w queryir.WhereClause) (Query, error)

	CreateTable(ifNotExists bool, t ir.Table) (Query, error)
	DropTable(ifExists bool, t ir.Table) (Query, error)
	Insert(t ir.Table, rows []ir.Row) (Query, error)
	Select(t ir.Table, p queryir.SelectQueryParams) (Query, error)
	Delete(t ir.Table, p queryir.SelectQueryParams) (Query, error)
	Update(t ir.Table, p queryir.UpdateQueryParams) (Query, error)
}

// Compiler is the shared Dialect implementation, parameterized by an
// engine grammar. Use NewSQLite, NewPostgres, NewMySQL or New.
//
// CRITICAL: values from rows, where clauses and SET lists are always bound
// as parameters. Only column defaults, NULL and LIMIT/OFFSET integers are
// inlined.
type Compiler struct {
	g *grammar
}

var _ Dialect = (*Compiler)(nil)

// Name returns the canonical dialect name.
func (c *Compiler) Name() string {
	return c.g.name
}

func (c *Compiler) unsupported(kind string, construct any) error {
	return ir.NewUnsupportedError(c.g.name, kind, construct)
}

// TranslateType renders a column type.
func (c *Compiler) TranslateType(t ir.Type) (string, error) {
	switch typ := t.(type) {
	case ir.IntegerType:
		return c.g.integerType, nil
	case ir.VarCharType:
		if typ.Length <= 0 {
			return "", ir.NewMalformedError("VARCHAR length must be positive, got %d", typ.Length)
		}
		return fmt.Sprintf("VARCHAR(%d)", typ.Length), nil
	case ir.BooleanType:
		return "BOOLEAN", nil
	case ir.TextType:
		return "TEXT", nil
	case ir.UUIDType:
		return c.g.uuidType, nil
	default:
		return "", c.unsupported("type", t)
	}
}

// TranslateValue renders a value as an inline SQL literal.
// Strings are single-quoted with embedded quotes doubled; MySQL also
// doubles backslashes.
func (c *Compiler) TranslateValue(v ir.Value) (string, error) {
	switch val := v.(type) {
	case ir.Integer:
		return strconv.FormatInt(int64(val), 10), nil
	case ir.VarChar:
		return c.g.quote(string(val)), nil
	case ir.Text:
		return c.g.quote(string(val)), nil
	case ir.Boolean:
		if val {
			return "TRUE", nil
		}
		return "FALSE", nil
	case ir.UUID:
		return c.g.quote(val.String()), nil
	default:
		return "", c.unsupported("value", v)
	}
}

// TranslateProperty renders a column constraint.
func (c *Compiler) TranslateProperty(p ir.ColumnProperty) (string, error) {
	switch prop := p.(type) {
	case ir.PrimaryKey:
		return "PRIMARY KEY", nil
	case ir.NotNull:
		return "NOT NULL", nil
	case ir.Unique:
		return "UNIQUE", nil
	case ir.Default:
		lit, err := c.TranslateValue(prop.Value)
		if err != nil {
			return "", err
		}
		return "DEFAULT " + lit, nil
	default:
		return "", c.unsupported("property", p)
	}
}

// TranslateOrderBy renders "<column> ASC|DESC".
func (c *Compiler) TranslateOrderBy(o queryir.OrderBy) (string, error) {
	if !ir.ValidIdentifier(o.Column) {
		return "", ir.NewMalformedError("order by: invalid column name %q", o.Column)
	}
	switch o.Direction {
	case queryir.Asc, queryir.Desc:
		return o.Column + " " + o.Direction.String(), nil
	default:
		return "", c.unsupported("direction", o.Direction)
	}
}

// TranslateWhereClause compiles a where tree on its own. Placeholders are
// numbered from 1.
func (c *Compiler) TranslateWhereClause(w queryir.WhereClause) (Query, error) {
	b := newBuilder(c.g)
	if err := c.writeWhere(b, w); err != nil {
		return Query{}, err
	}
	return b.query(), nil
}

// columnDef renders "<name> <type>[ <property>...][ <identity>]".
func (c *Compiler) columnDef(col ir.Column) (string, error) {
	typ, err := c.TranslateType(col.Type)
	if err != nil {
		return "", fmt.Errorf("column %q: %w", col.Name, err)
	}

	parts := []string{col.Name, typ}
	for _, p := range col.Properties {
		prop, err := c.TranslateProperty(p)
		if err != nil {
			return "", fmt.Errorf("column %q: %w", col.Name, err)
		}
		parts = append(parts, prop)
	}

	if _, isInt := col.Type.(ir.IntegerType); isInt && col.IsPrimaryKey() && c.g.identity != "" {
		parts = append(parts, c.g.identity)
	}
	return strings.Join(parts, " "), nil
}

// CreateTable compiles CREATE TABLE. The statement has no parameters.
func (c *Compiler) CreateTable(ifNotExists bool, t ir.Table) (Query, error) {
	if err := t.Validate(); err != nil {
		return Query{}, err
	}

	defs := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		def, err := c.columnDef(col)
		if err != nil {
			return Query{}, err
		}
		defs[i] = def
	}

	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if ifNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	fmt.Fprintf(&sb, "%s (%s)", t.Name, strings.Join(defs, ", "))
	return Query{SQL: sb.String()}, nil
}

// DropTable compiles DROP TABLE. Only the table name is used.
func (c *Compiler) DropTable(ifExists bool, t ir.Table) (Query, error) {
	if !ir.ValidIdentifier(t.Name) {
		return Query{}, ir.NewMalformedError("invalid table name %q", t.Name)
	}
	if ifExists {
		return Query{SQL: "DROP TABLE IF EXISTS " + t.Name}, nil
	}
	return Query{SQL: "DROP TABLE " + t.Name}, nil
}

// Insert compiles a multi-row INSERT.
//
// Primary key columns are never listed; their slots are ignored. An absent
// slot in any other column inlines the column default, or NULL when the
// column has none. Present slots are bound.
func (c *Compiler) Insert(t ir.Table, rows []ir.Row) (Query, error) {
	if err := t.Validate(); err != nil {
		return Query{}, err
	}
	if len(rows) == 0 {
		return Query{}, ir.NewMalformedError("insert into %q: no rows", t.Name)
	}

	var insertable []int
	for i, col := range t.Columns {
		if !col.IsPrimaryKey() {
			insertable = append(insertable, i)
		}
	}
	if len(insertable) == 0 {
		return Query{}, ir.NewMalformedError("insert into %q: no insertable columns", t.Name)
	}

	for r, row := range rows {
		if len(row) != len(t.Columns) {
			return Query{}, ir.NewMalformedError("insert into %q: row %d has %d values, table has %d columns",
				t.Name, r, len(row), len(t.Columns))
		}
	}

	// Render defaults once; every absent slot in a column reuses it.
	fill := make(map[int]string, len(insertable))
	for _, i := range insertable {
		fill[i] = "NULL"
		if def, ok := t.Columns[i].DefaultValue(); ok {
			lit, err := c.TranslateValue(def)
			if err != nil {
				return Query{}, fmt.Errorf("column %q default: %w", t.Columns[i].Name, err)
			}
			fill[i] = lit
		}
	}

	b := newBuilder(c.g)
	b.write("INSERT INTO ", t.Name, " (")
	for n, i := range insertable {
		if n > 0 {
			b.write(", ")
		}
		b.write(t.Columns[i].Name)
	}
	b.write(") VALUES ")

	for r, row := range rows {
		if r > 0 {
			b.write(", ")
		}
		b.write("(")
		for n, i := range insertable {
			if n > 0 {
				b.write(", ")
			}
			if row[i] == nil {
				b.write(fill[i])
				continue
			}
			b.bind(row[i])
		}
		b.write(")")
	}
	return b.query(), nil
}

// Select compiles SELECT with clauses in fixed order:
// WHERE, ORDER BY, LIMIT, OFFSET.
func (c *Compiler) Select(t ir.Table, p queryir.SelectQueryParams) (Query, error) {
	if err := t.Validate(); err != nil {
		return Query{}, err
	}
	if err := queryir.ValidateSelect(t, p); err != nil {
		return Query{}, err
	}

	b := newBuilder(c.g)
	b.write("SELECT ")
	if p.Columns == nil {
		b.write("*")
	} else {
		if len(p.Columns) == 0 {
			return Query{}, ir.NewMalformedError("select from %q: empty column list", t.Name)
		}
		b.write(strings.Join(p.Columns, ", "))
	}
	b.write(" FROM ", t.Name)

	if p.Where != nil {
		b.write(" WHERE ")
		if err := c.writeWhere(b, p.Where); err != nil {
			return Query{}, err
		}
	}

	if p.OrderBy != nil {
		order, err := c.TranslateOrderBy(*p.OrderBy)
		if err != nil {
			return Query{}, err
		}
		b.write(" ORDER BY ", order)
	}

	switch {
	case p.Limit != nil:
		b.write(" LIMIT ", strconv.Itoa(*p.Limit))
	case p.Offset != nil && c.g.unboundedLimit != "":
		b.write(" LIMIT ", c.g.unboundedLimit)
	}
	if p.Offset != nil {
		b.write(" OFFSET ", strconv.Itoa(*p.Offset))
	}

	return b.query(), nil
}

// Delete compiles DELETE. OrderBy, Limit and Offset on p are ignored.
func (c *Compiler) Delete(t ir.Table, p queryir.SelectQueryParams) (Query, error) {
	if err := t.Validate(); err != nil {
		return Query{}, err
	}
	if err := queryir.Validate(t, p.Where); err != nil {
		return Query{}, err
	}

	b := newBuilder(c.g)
	b.write("DELETE FROM ", t.Name)
	if p.Where != nil {
		b.write(" WHERE ")
		if err := c.writeWhere(b, p.Where); err != nil {
			return Query{}, err
		}
	}
	return b.query(), nil
}

// Update compiles UPDATE. SET parameters precede WHERE parameters.
// A nil assignment value is inlined as NULL.
func (c *Compiler) Update(t ir.Table, p queryir.UpdateQueryParams) (Query, error) {
	if err := t.Validate(); err != nil {
		return Query{}, err
	}
	if err := queryir.ValidateUpdate(t, p); err != nil {
		return Query{}, err
	}

	b := newBuilder(c.g)
	b.write("UPDATE ", t.Name, " SET ")
	for i, a := range p.Set {
		if i > 0 {
			b.write(", ")
		}
		b.write(a.Column, " = ")
		if a.Value == nil {
			b.write("NULL")
			continue
		}
		b.bind(a.Value)
	}

	if p.Where != nil {
		b.write(" WHERE ")
		if err := c.writeWhere(b, p.Where); err != nil {
			return Query{}, err
		}
	}
	return b.query(), nil
}
