// Package ir provides the engine-independent value, type and schema model
// for ezql.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Type, Value and ColumnProperty are sealed: adding a variant is a
//     compiler-checked change in every dialect
//   - There is no NULL value; an absent value is a nil slot in a Row
//   - Column order in a Table is the positional contract for rows
//   - Failures are *Error values carrying an ErrorCode
package ir
