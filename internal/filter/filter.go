// Package filter parses a small SQL-like text syntax into a where clause.
//
//	name = 'John' AND NOT is_active
//	id IN (1, 2, 3) OR (name LIKE 'J%' AND id >= 10)
//	email IS NOT NULL
//
// Literals are typed by the column they are compared with, so the same
// quoted string becomes a VarChar, Text or UUID value depending on the
// table. Keywords are case-insensitive. AND binds tighter than OR.
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/google/uuid"

	"github.com/roach88/ezql/internal/ir"
	"github.com/roach88/ezql/internal/queryir"
)

// Error is a syntax or typing error at a position in the filter text.
type Error struct {
	Pos     lexer.Position
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("filter %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Parse parses text into a where clause over table.
// Blank text yields a nil clause (no filter).
func Parse(table ir.Table, text string) (queryir.WhereClause, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	expr, err := parser.ParseString("", text)
	if err != nil {
		var perr participle.Error
		if errors.As(err, &perr) {
			return nil, &Error{Pos: perr.Position(), Message: perr.Message()}
		}
		return nil, err
	}

	c := &converter{table: table}
	return c.or(expr)
}

// converter resolves columns and literal types against a table.
type converter struct {
	table ir.Table
}

func (c *converter) or(e *orExpr) (queryir.WhereClause, error) {
	clauses := make([]queryir.WhereClause, 0, len(e.Terms))
	for _, t := range e.Terms {
		w, err := c.and(t)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, w)
	}
	if len(clauses) == 1 {
		return clauses[0], nil
	}
	return queryir.Or{Clauses: clauses}, nil
}

func (c *converter) and(e *andExpr) (queryir.WhereClause, error) {
	clauses := make([]queryir.WhereClause, 0, len(e.Terms))
	for _, t := range e.Terms {
		w, err := c.unary(t)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, w)
	}
	if len(clauses) == 1 {
		return clauses[0], nil
	}
	return queryir.And{Clauses: clauses}, nil
}

func (c *converter) unary(u *unary) (queryir.WhereClause, error) {
	switch {
	case u.Not != nil:
		inner, err := c.unary(u.Not)
		if err != nil {
			return nil, err
		}
		return queryir.Not{Clause: inner}, nil
	case u.Group != nil:
		return c.or(u.Group)
	case u.Const != nil:
		if strings.EqualFold(*u.Const, "TRUE") {
			return queryir.All{}, nil
		}
		return queryir.Not{Clause: queryir.All{}}, nil
	default:
		return c.predicate(u.Pred)
	}
}

func (c *converter) predicate(p *predicate) (queryir.WhereClause, error) {
	i, ok := c.table.ColumnIndex(p.Column)
	if !ok {
		return nil, &Error{Pos: p.Pos, Message: fmt.Sprintf("unknown column %q in table %q", p.Column, c.table.Name)}
	}
	col := c.table.Columns[i]

	switch {
	case p.Compare != nil:
		v, err := c.value(col, p.Compare.Value)
		if err != nil {
			return nil, err
		}
		return comparisonClause(p.Compare.Op, col.Name, v), nil

	case p.Null != nil:
		if p.Null.Not {
			return queryir.IsNotNull{Column: col.Name}, nil
		}
		return queryir.IsNull{Column: col.Name}, nil

	case p.Member != nil:
		values := make([]ir.Value, 0, len(p.Member.Values))
		for _, lit := range p.Member.Values {
			v, err := c.value(col, lit)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		if p.Member.Not {
			return queryir.NotIn{Column: col.Name, Values: values}, nil
		}
		return queryir.In{Column: col.Name, Values: values}, nil

	case p.Like != nil:
		if p.Like.String == nil {
			return nil, &Error{Pos: p.Like.Pos, Message: "LIKE needs a quoted pattern"}
		}
		switch col.Type.(type) {
		case ir.VarCharType, ir.TextType:
		default:
			return nil, &Error{Pos: p.Pos, Message: fmt.Sprintf("LIKE on %s column %q", col.Type, col.Name)}
		}
		return queryir.Like{Column: col.Name, Pattern: unquote(*p.Like.String)}, nil

	default:
		// Bare column: boolean flag test
		if _, ok := col.Type.(ir.BooleanType); !ok {
			return nil, &Error{Pos: p.Pos, Message: fmt.Sprintf("column %q is %s, not BOOLEAN; add a comparison", col.Name, col.Type)}
		}
		return queryir.Eq{Column: col.Name, Value: ir.Boolean(true)}, nil
	}
}

func comparisonClause(op, column string, v ir.Value) queryir.WhereClause {
	switch op {
	case "!=", "<>":
		return queryir.Ne{Column: column, Value: v}
	case ">":
		return queryir.Gt{Column: column, Value: v}
	case ">=":
		return queryir.Ge{Column: column, Value: v}
	case "<":
		return queryir.Lt{Column: column, Value: v}
	case "<=":
		return queryir.Le{Column: column, Value: v}
	default:
		return queryir.Eq{Column: column, Value: v}
	}
}

// value types a literal by the column it is compared with.
func (c *converter) value(col ir.Column, lit *literal) (ir.Value, error) {
	mismatch := func(kind string) error {
		return &Error{Pos: lit.Pos, Message: fmt.Sprintf("%s literal for %s column %q", kind, col.Type, col.Name)}
	}

	switch col.Type.(type) {
	case ir.IntegerType:
		if lit.Int == nil {
			return nil, mismatch(lit.kind())
		}
		n, err := strconv.ParseInt(*lit.Int, 10, 32)
		if err != nil {
			return nil, &Error{Pos: lit.Pos, Message: fmt.Sprintf("%s does not fit a 32-bit integer", *lit.Int)}
		}
		return ir.Integer(n), nil
	case ir.BooleanType:
		if lit.Bool == nil {
			return nil, mismatch(lit.kind())
		}
		return ir.Boolean(strings.EqualFold(*lit.Bool, "TRUE")), nil
	case ir.VarCharType:
		if lit.String == nil {
			return nil, mismatch(lit.kind())
		}
		return ir.VarChar(unquote(*lit.String)), nil
	case ir.TextType:
		if lit.String == nil {
			return nil, mismatch(lit.kind())
		}
		return ir.Text(unquote(*lit.String)), nil
	case ir.UUIDType:
		if lit.String == nil {
			return nil, mismatch(lit.kind())
		}
		id, err := uuid.Parse(unquote(*lit.String))
		if err != nil {
			return nil, &Error{Pos: lit.Pos, Message: fmt.Sprintf("invalid uuid for column %q: %v", col.Name, err)}
		}
		return ir.UUID(id), nil
	default:
		return nil, &Error{Pos: lit.Pos, Message: fmt.Sprintf("column %q has no type", col.Name)}
	}
}

func (l *literal) kind() string {
	switch {
	case l.String != nil:
		return "string"
	case l.Int != nil:
		return "integer"
	default:
		return "boolean"
	}
}

// unquote strips SQL quotes and collapses doubled quotes.
func unquote(s string) string {
	s = s[1 : len(s)-1]
	return strings.ReplaceAll(s, "''", "'")
}
