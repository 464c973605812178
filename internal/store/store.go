package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/ezql/internal/ir"
)

// Driver names registered with database/sql.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Store executes compiled statements over one database/sql handle.
//
// The pool is limited to a single connection: a Store behaves as one
// logical database connection and is not meant for concurrent use.
type Store struct {
	db     *sql.DB
	driver string
}

// DriverFor maps a dialect name to the database/sql driver that serves it.
func DriverFor(dialect string) (string, error) {
	switch dialect {
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "postgresql":
		return DriverPostgres, nil
	case "mysql":
		return DriverMySQL, nil
	default:
		return "", fmt.Errorf("no driver for dialect %q", dialect)
	}
}

// Open connects to a database.
//
// driver is a dialect or driver name (sqlite, sqlite3, postgres,
// postgresql, mysql). The DSN is checked with the driver's own parser
// before connecting:
//   - postgres: URL form (postgres://...) is converted with pq.ParseURL
//   - mysql: validated with mysql.ParseDSN
//   - sqlite3: a file path or ":memory:"
//
// SQLite connections get the same pragmas regardless of path:
// busy_timeout=5000 and foreign_keys=ON. File databases also use WAL.
func Open(driver, dsn string) (*Store, error) {
	name, err := DriverFor(driver)
	if err != nil {
		return nil, err
	}

	switch name {
	case DriverPostgres:
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			converted, err := pq.ParseURL(dsn)
			if err != nil {
				return nil, fmt.Errorf("invalid postgres URL: %w", err)
			}
			dsn = converted
		}
	case DriverMySQL:
		if _, err := mysql.ParseDSN(dsn); err != nil {
			return nil, fmt.Errorf("invalid mysql DSN: %w", err)
		}
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if name == DriverSQLite {
		if err := applyPragmas(db, dsn != ":memory:"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	return &Store{db: db, driver: name}, nil
}

// OpenSQLite creates or opens a SQLite database file at path.
func OpenSQLite(path string) (*Store, error) {
	return Open(DriverSQLite, path)
}

// OpenMemory opens a private in-memory SQLite database.
// The data lives as long as the Store.
func OpenMemory() (*Store, error) {
	return Open(DriverSQLite, ":memory:")
}

// Driver returns the database/sql driver name.
func (s *Store) Driver() string {
	return s.driver
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Execute runs a statement that returns no rows.
func (s *Store) Execute(ctx context.Context, query string, params []ir.Value) error {
	if s.db == nil {
		return sql.ErrConnDone
	}
	args, err := toArgs(params)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	return nil
}

// Query runs a statement and decodes every result row.
// Each cell becomes an ir.Value; SQL NULL becomes an absent (nil) slot.
func (s *Store) Query(ctx context.Context, query string, params []ir.Value) ([]ir.Row, error) {
	if s.db == nil {
		return nil, sql.ErrConnDone
	}
	args, err := toArgs(params)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", err)
	}
	typeNames := make([]string, len(colTypes))
	for i, ct := range colTypes {
		typeNames[i] = ct.DatabaseTypeName()
	}

	var result []ir.Row
	for rows.Next() {
		cells := make([]any, len(typeNames))
		ptrs := make([]any, len(typeNames))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(ir.Row, len(cells))
		for i, cell := range cells {
			v, err := decodeCell(cell, typeNames[i])
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", len(result), i, err)
			}
			row[i] = v
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

func toArgs(params []ir.Value) ([]any, error) {
	args := make([]any, len(params))
	for i, p := range params {
		if p == nil {
			return nil, ir.NewMalformedError("parameter %d: missing value", i+1)
		}
		args[i] = p.Arg()
	}
	return args, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB, wal bool) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	if wal {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}
