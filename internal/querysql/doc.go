// Package querysql compiles the query IR into parameterized SQL.
//
// One Compiler implements every statement; a per-engine grammar supplies
// the differences:
//
//	            placeholders  integer  uuid      integer key identity
//	sqlite      ?             INTEGER  TEXT      (rowid alias)
//	postgres    $1, $2, ...   INTEGER  UUID      GENERATED BY DEFAULT AS IDENTITY
//	mysql       ?             INT      CHAR(36)  AUTO_INCREMENT
//
// Statements carry no trailing semicolon. Identifiers are validated, not
// quoted. Values supplied by callers are always bound; column defaults,
// NULL and LIMIT/OFFSET integers are the only inlined literals.
//
// Compilation never touches a database, so every method can be called
// standalone to inspect the SQL a backend would run.
package querysql
