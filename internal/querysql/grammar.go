package querysql

import (
	"strconv"
	"strings"

	"github.com/roach88/ezql/internal/ir"
)

// grammar holds everything that differs between engines. The statement
// shapes themselves are shared by Compiler.
type grammar struct {
	name string

	// placeholder renders the n-th (1-based) bound parameter.
	placeholder func(n int) string

	// quote renders a string as a single-quoted literal.
	quote func(s string) string

	integerType string
	uuidType    string

	// identity is appended to integer primary key columns so the engine
	// generates their values. Empty when the key alone is enough.
	identity string

	// unboundedLimit is emitted as LIMIT when only OFFSET is requested.
	// Empty when the engine accepts a bare OFFSET.
	unboundedLimit string
}

func questionMark(int) string { return "?" }

func dollarN(n int) string { return "$" + strconv.Itoa(n) }

var (
	standardQuoter = strings.NewReplacer("'", "''")
	// MySQL reads backslash as an escape inside literals by default.
	mysqlQuoter = strings.NewReplacer("'", "''", `\`, `\\`)
)

func quoteStandard(s string) string { return "'" + standardQuoter.Replace(s) + "'" }

func quoteMySQL(s string) string { return "'" + mysqlQuoter.Replace(s) + "'" }

var sqliteGrammar = grammar{
	name:           "sqlite",
	placeholder:    questionMark,
	quote:          quoteStandard,
	integerType:    "INTEGER",
	uuidType:       "TEXT",
	unboundedLimit: "-1",
}

var postgresGrammar = grammar{
	name:        "postgres",
	placeholder: dollarN,
	quote:       quoteStandard,
	integerType: "INTEGER",
	uuidType:    "UUID",
	identity:    "GENERATED BY DEFAULT AS IDENTITY",
}

var mysqlGrammar = grammar{
	name:           "mysql",
	placeholder:    questionMark,
	quote:          quoteMySQL,
	integerType:    "INT",
	uuidType:       "CHAR(36)",
	identity:       "AUTO_INCREMENT",
	unboundedLimit: "18446744073709551615",
}

// NewSQLite returns the SQLite dialect.
func NewSQLite() *Compiler {
	return &Compiler{g: &sqliteGrammar}
}

// NewPostgres returns the PostgreSQL dialect.
func NewPostgres() *Compiler {
	return &Compiler{g: &postgresGrammar}
}

// NewMySQL returns the MySQL dialect.
func NewMySQL() *Compiler {
	return &Compiler{g: &mysqlGrammar}
}

// New returns the dialect registered under name.
//
// Accepted names: sqlite, sqlite3, postgres, postgresql, mysql.
func New(name string) (Dialect, error) {
	switch name {
	case "sqlite", "sqlite3":
		return NewSQLite(), nil
	case "postgres", "postgresql":
		return NewPostgres(), nil
	case "mysql":
		return NewMySQL(), nil
	default:
		return nil, &ir.Error{
			Code:    ir.ErrCodeUnsupportedConstruct,
			Message: "unknown dialect " + strconv.Quote(name),
			Dialect: name,
		}
	}
}

// Names lists the canonical dialect names accepted by New.
func Names() []string {
	return []string{sqliteGrammar.name, postgresGrammar.name, mysqlGrammar.name}
}
