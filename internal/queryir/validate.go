package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/ezql/internal/ir"
)

// Validate checks a where-clause tree against a table.
//
// Every problem found during the walk is reported in a single
// MALFORMED_QUERY_IR error:
//  1. Columns must exist in the table
//  2. Comparison values must be present (use IsNull for absence)
//  3. In/NotIn elements must be present
//  4. Composite nodes must not hold nil children
//
// A nil clause is valid (no filter). Unknown variants are left for the
// dialect, which rejects them as UNSUPPORTED_CONSTRUCT.
//
// Validate is a pure function with no side effects.
func Validate(table ir.Table, clause WhereClause) error {
	v := &validator{table: table}
	if clause != nil {
		v.validateClause(clause, "where")
	}
	return v.err()
}

// ValidateSelect checks projected and ordered columns, paging bounds and
// the where clause of a SELECT/DELETE.
func ValidateSelect(table ir.Table, p SelectQueryParams) error {
	v := &validator{table: table}
	for _, col := range p.Columns {
		v.checkColumn(col, "columns")
	}
	if p.OrderBy != nil {
		v.checkColumn(p.OrderBy.Column, "order by")
	}
	if p.Limit != nil && *p.Limit < 0 {
		v.addProblem("limit: negative value %d", *p.Limit)
	}
	if p.Offset != nil && *p.Offset < 0 {
		v.addProblem("offset: negative value %d", *p.Offset)
	}
	if p.Where != nil {
		v.validateClause(p.Where, "where")
	}
	return v.err()
}

// ValidateUpdate checks the SET list and where clause of an UPDATE.
func ValidateUpdate(table ir.Table, p UpdateQueryParams) error {
	v := &validator{table: table}
	if len(p.Set) == 0 {
		v.addProblem("set: no assignments")
	}
	for i, a := range p.Set {
		v.checkColumn(a.Column, fmt.Sprintf("set[%d]", i))
	}
	if p.Where != nil {
		v.validateClause(p.Where, "where")
	}
	return v.err()
}

// validator accumulates problems during traversal.
type validator struct {
	table    ir.Table
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) err() error {
	if len(v.problems) == 0 {
		return nil
	}
	return ir.NewMalformedError("table %q: %s", v.table.Name, strings.Join(v.problems, "; "))
}

func (v *validator) checkColumn(name, path string) {
	if _, ok := v.table.ColumnIndex(name); !ok {
		v.addProblem("%s: unknown column %q", path, name)
	}
}

func (v *validator) checkValue(val ir.Value, path string) {
	if val == nil {
		v.addProblem("%s: missing value", path)
	}
}

// validateClause recursively validates a where node.
func (v *validator) validateClause(c WhereClause, path string) {
	switch clause := c.(type) {
	case nil:
		v.addProblem("%s: nil clause", path)
	case Eq:
		v.checkComparison(clause.Column, clause.Value, path)
	case Ne:
		v.checkComparison(clause.Column, clause.Value, path)
	case Gt:
		v.checkComparison(clause.Column, clause.Value, path)
	case Ge:
		v.checkComparison(clause.Column, clause.Value, path)
	case Lt:
		v.checkComparison(clause.Column, clause.Value, path)
	case Le:
		v.checkComparison(clause.Column, clause.Value, path)
	case Like:
		v.checkColumn(clause.Column, path)
	case IsNull:
		v.checkColumn(clause.Column, path)
	case IsNotNull:
		v.checkColumn(clause.Column, path)
	case In:
		v.checkMembership(clause.Column, clause.Values, path)
	case NotIn:
		v.checkMembership(clause.Column, clause.Values, path)
	case All:
	case And:
		for i, child := range clause.Clauses {
			v.validateClause(child, fmt.Sprintf("%s.and[%d]", path, i))
		}
	case Or:
		for i, child := range clause.Clauses {
			v.validateClause(child, fmt.Sprintf("%s.or[%d]", path, i))
		}
	case Not:
		v.validateClause(clause.Clause, path+".not")
	}
}

func (v *validator) checkComparison(column string, val ir.Value, path string) {
	v.checkColumn(column, path)
	v.checkValue(val, path)
}

func (v *validator) checkMembership(column string, vals []ir.Value, path string) {
	v.checkColumn(column, path)
	for i, val := range vals {
		v.checkValue(val, fmt.Sprintf("%s[%d]", path, i))
	}
}
