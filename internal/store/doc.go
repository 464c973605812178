// Package store executes compiled statements against a real database.
//
// Store is the concrete execution seam used by the backend facade. It wraps
// one database/sql handle and speaks three drivers:
//   - sqlite3: github.com/mattn/go-sqlite3 (default, file or in-memory)
//   - postgres: github.com/lib/pq
//   - mysql: github.com/go-sql-driver/mysql
//
// # Parameters and rows
//
// Parameters arrive as ir.Value and are handed to the driver via Value.Arg.
// Result cells are decoded back into ir.Value by declared column type;
// SQL NULL becomes a nil slot.
//
// # Database Configuration (SQLite)
//
//   - WAL mode for file databases
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - One open connection, so an in-memory database survives between calls
package store
