package queryir

import (
	"strings"

	"github.com/roach88/ezql/internal/ir"
)

// WhereClause represents a boolean filter over a table's columns.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in dialect compilers.
//
// Leaf predicates:
//   - Eq, Ne, Gt, Ge, Lt, Le: column compared to one bound value
//   - Like: column matched against a bound pattern
//   - IsNull, IsNotNull: column presence, no bound values
//   - In, NotIn: column membership, one bound value per element
//   - All: always true
//
// Composite predicates:
//   - And, Or: every child parenthesized and joined
//   - Not: single child, negated
//
// A tree is built by the caller and never mutated by compilation.
type WhereClause interface {
	whereNode() // Marker method - seals interface to this package
}

// Eq represents <column> = <value>.
type Eq struct {
	Column string
	Value  ir.Value
}

func (Eq) whereNode() {}

// Ne represents <column> <> <value>.
type Ne struct {
	Column string
	Value  ir.Value
}

func (Ne) whereNode() {}

// Gt represents <column> > <value>.
type Gt struct {
	Column string
	Value  ir.Value
}

func (Gt) whereNode() {}

// Ge represents <column> >= <value>.
type Ge struct {
	Column string
	Value  ir.Value
}

func (Ge) whereNode() {}

// Lt represents <column> < <value>.
type Lt struct {
	Column string
	Value  ir.Value
}

func (Lt) whereNode() {}

// Le represents <column> <= <value>.
type Le struct {
	Column string
	Value  ir.Value
}

func (Le) whereNode() {}

// Like represents <column> LIKE <pattern>.
//
// The pattern uses SQL wildcards (% and _) and is bound as a parameter,
// never inlined.
type Like struct {
	Column  string
	Pattern string
}

func (Like) whereNode() {}

// IsNull represents <column> IS NULL.
type IsNull struct {
	Column string
}

func (IsNull) whereNode() {}

// IsNotNull represents <column> IS NOT NULL.
type IsNotNull struct {
	Column string
}

func (IsNotNull) whereNode() {}

// In represents <column> IN (<values>).
//
// An empty Values list is always false.
type In struct {
	Column string
	Values []ir.Value
}

func (In) whereNode() {}

// NotIn represents <column> NOT IN (<values>).
//
// An empty Values list is always true.
type NotIn struct {
	Column string
	Values []ir.Value
}

func (NotIn) whereNode() {}

// All matches every row.
type All struct{}

func (All) whereNode() {}

// And represents a conjunction (all must be true).
//
// Empty Clauses means "always true".
type And struct {
	Clauses []WhereClause
}

func (And) whereNode() {}

// Or represents a disjunction (any must be true).
//
// Empty Clauses means "always false".
type Or struct {
	Clauses []WhereClause
}

func (Or) whereNode() {}

// Not negates a single clause.
type Not struct {
	Clause WhereClause
}

func (Not) whereNode() {}

// Direction is the sort order of an OrderBy.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	switch d {
	case Asc:
		return "ASC"
	case Desc:
		return "DESC"
	default:
		return "UNKNOWN"
	}
}

// OrderBy sorts results by a single column.
type OrderBy struct {
	Column    string
	Direction Direction
}

// Ascending returns an ascending OrderBy for column.
func Ascending(column string) *OrderBy {
	return &OrderBy{Column: column, Direction: Asc}
}

// Descending returns a descending OrderBy for column.
func Descending(column string) *OrderBy {
	return &OrderBy{Column: column, Direction: Desc}
}

// ParseOrderBy reads the short form used by scenarios and the CLI:
// "col" or "+col" ascending, "-col" descending. Empty input gives nil.
func ParseOrderBy(s string) *OrderBy {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if col, ok := strings.CutPrefix(s, "-"); ok {
		return Descending(col)
	}
	return Ascending(strings.TrimPrefix(s, "+"))
}

// SelectQueryParams configures a SELECT or DELETE.
//
// Columns nil means every column. Where nil means no filter.
// DELETE accepts the same params but ignores OrderBy, Limit and Offset.
type SelectQueryParams struct {
	Columns []string
	Where   WhereClause
	OrderBy *OrderBy
	Limit   *int
	Offset  *int
}

// Assignment is one <column> = <value> entry of an UPDATE SET list.
// A nil Value sets the column to NULL.
type Assignment struct {
	Column string
	Value  ir.Value
}

// UpdateQueryParams configures an UPDATE.
type UpdateQueryParams struct {
	Set   []Assignment
	Where WhereClause
}

// Set is shorthand for an Assignment built from a native scalar.
func Set[T ir.Native](column string, v T) Assignment {
	return Assignment{Column: column, Value: ir.ValueOf(v)}
}

// SetNull is shorthand for an Assignment to NULL.
func SetNull(column string) Assignment {
	return Assignment{Column: column}
}

// Int returns a pointer to n, for SelectQueryParams.Limit and Offset.
func Int(n int) *int {
	return &n
}
