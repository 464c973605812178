// Package queryir provides the query intermediate representation (IR) that
// dialect compilers lower into SQL.
//
// ARCHITECTURE:
//
//	[caller / filter DSL] → [Query IR] → [querysql Dialect] → Query{SQL, Params}
//
// The IR is engine-independent. It says nothing about placeholder style,
// keyword spelling or type names; those belong to the dialect.
//
// SEALED INTERFACES:
//
// WhereClause is a sealed interface using the marker method pattern.
// Only types in this package can implement it, so dialects can switch
// exhaustively:
//
//	switch w := clause.(type) {
//	case Eq:
//	    // column = ?
//	case And:
//	    // (a) AND (b)
//	default:
//	    // rejected as UNSUPPORTED_CONSTRUCT
//	}
//
// PARAMETER ORDER:
//
// Compilation emits parameters depth-first, left to right. The i-th bound
// parameter always corresponds to the i-th placeholder in the SQL text.
//
// DEGENERATE FORMS:
//
//	In{Values: nil}     always false
//	NotIn{Values: nil}  always true
//	And{}               always true
//	Or{}                always false
//	All{}               always true
//
// NULLS:
//
// There is no NULL value. Comparisons require a present ir.Value; use
// IsNull / IsNotNull to test for absence. Validate reports a nil
// comparison value as MALFORMED_QUERY_IR.
package queryir
