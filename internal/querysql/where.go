package querysql

import (
	"github.com/roach88/ezql/internal/ir"
	"github.com/roach88/ezql/internal/queryir"
)

const (
	alwaysTrue  = "1 = 1"
	alwaysFalse = "1 = 0"
)

// writeWhere compiles a where tree into b.
//
// Parameters are appended depth-first, left to right, so their order always
// matches placeholder order in the text. Composite nodes parenthesize every
// child.
func (c *Compiler) writeWhere(b *builder, w queryir.WhereClause) error {
	switch clause := w.(type) {
	case queryir.Eq:
		return c.writeComparison(b, clause.Column, "=", clause.Value)
	case queryir.Ne:
		return c.writeComparison(b, clause.Column, "<>", clause.Value)
	case queryir.Gt:
		return c.writeComparison(b, clause.Column, ">", clause.Value)
	case queryir.Ge:
		return c.writeComparison(b, clause.Column, ">=", clause.Value)
	case queryir.Lt:
		return c.writeComparison(b, clause.Column, "<", clause.Value)
	case queryir.Le:
		return c.writeComparison(b, clause.Column, "<=", clause.Value)
	case queryir.Like:
		return c.writeComparison(b, clause.Column, "LIKE", ir.VarChar(clause.Pattern))
	case queryir.IsNull:
		return c.writeNullCheck(b, clause.Column, "IS NULL")
	case queryir.IsNotNull:
		return c.writeNullCheck(b, clause.Column, "IS NOT NULL")
	case queryir.In:
		return c.writeMembership(b, clause.Column, "IN", clause.Values, alwaysFalse)
	case queryir.NotIn:
		return c.writeMembership(b, clause.Column, "NOT IN", clause.Values, alwaysTrue)
	case queryir.All:
		b.write(alwaysTrue)
		return nil
	case queryir.And:
		return c.writeJunction(b, "AND", clause.Clauses, alwaysTrue)
	case queryir.Or:
		return c.writeJunction(b, "OR", clause.Clauses, alwaysFalse)
	case queryir.Not:
		if clause.Clause == nil {
			return ir.NewMalformedError("NOT: missing clause")
		}
		b.write("NOT (")
		if err := c.writeWhere(b, clause.Clause); err != nil {
			return err
		}
		b.write(")")
		return nil
	default:
		return c.unsupported("where clause", w)
	}
}

func checkColumn(column string) error {
	if !ir.ValidIdentifier(column) {
		return ir.NewMalformedError("where: invalid column name %q", column)
	}
	return nil
}

func (c *Compiler) writeComparison(b *builder, column, op string, v ir.Value) error {
	if err := checkColumn(column); err != nil {
		return err
	}
	if v == nil {
		return ir.NewMalformedError("where: %s %s: missing value", column, op)
	}
	b.write(column, " ", op, " ")
	b.bind(v)
	return nil
}

func (c *Compiler) writeNullCheck(b *builder, column, check string) error {
	if err := checkColumn(column); err != nil {
		return err
	}
	b.write(column, " ", check)
	return nil
}

// writeMembership writes "<column> IN (?, ?, ...)". An empty list writes
// the degenerate condition instead.
func (c *Compiler) writeMembership(b *builder, column, op string, vals []ir.Value, empty string) error {
	if err := checkColumn(column); err != nil {
		return err
	}
	if len(vals) == 0 {
		b.write(empty)
		return nil
	}
	for i, v := range vals {
		if v == nil {
			return ir.NewMalformedError("where: %s %s: missing value at %d", column, op, i)
		}
	}

	b.write(column, " ", op, " (")
	for i, v := range vals {
		if i > 0 {
			b.write(", ")
		}
		b.bind(v)
	}
	b.write(")")
	return nil
}

// writeJunction writes "(a) OP (b) ...". An empty list writes the
// identity of OP.
func (c *Compiler) writeJunction(b *builder, op string, clauses []queryir.WhereClause, empty string) error {
	if len(clauses) == 0 {
		b.write(empty)
		return nil
	}
	for i, child := range clauses {
		if child == nil {
			return ir.NewMalformedError("%s: missing clause at %d", op, i)
		}
		if i > 0 {
			b.write(" ", op, " ")
		}
		b.write("(")
		if err := c.writeWhere(b, child); err != nil {
			return err
		}
		b.write(")")
	}
	return nil
}
