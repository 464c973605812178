package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ezql/internal/ir"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
	if s.Driver() != DriverSQLite {
		t.Errorf("Driver() = %q, want %q", s.Driver(), DriverSQLite)
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	var fk int
	if err := s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no driver for dialect "oracle"`)
}

func TestOpen_InvalidMySQLDSN(t *testing.T) {
	// Rejected by mysql.ParseDSN before any connection attempt
	_, err := Open("mysql", "user:pass@tcp(localhost:3306")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mysql DSN")
}

func TestOpen_InvalidPostgresURL(t *testing.T) {
	_, err := Open("postgresql", "postgres://%zz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid postgres URL")
}

func TestDriverFor(t *testing.T) {
	for dialect, want := range map[string]string{
		"sqlite":     DriverSQLite,
		"sqlite3":    DriverSQLite,
		"postgres":   DriverPostgres,
		"postgresql": DriverPostgres,
		"mysql":      DriverMySQL,
	} {
		got, err := DriverFor(dialect)
		require.NoError(t, err)
		assert.Equal(t, want, got, dialect)
	}
}

func TestExecuteAndQuery_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createMemoryStore(t)

	require.NoError(t, s.Execute(ctx,
		"CREATE TABLE items (id INTEGER PRIMARY KEY, name VARCHAR(20), note TEXT, active BOOLEAN, ref TEXT)", nil))

	ref := uuid.MustParse("0190d0a4-8c3e-7b1a-9f00-000000000001")
	require.NoError(t, s.Execute(ctx,
		"INSERT INTO items (name, note, active, ref) VALUES (?, ?, ?, ?), (?, NULL, ?, NULL)",
		[]ir.Value{
			ir.VarChar("pen"), ir.Text("blue"), ir.Boolean(true), ir.UUID(ref),
			ir.VarChar("cap"), ir.Boolean(false),
		}))

	rows, err := s.Query(ctx, "SELECT id, name, note, active, ref FROM items ORDER BY id", nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, ir.Row{ir.Integer(1), ir.VarChar("pen"), ir.Text("blue"), ir.Boolean(true), ir.Text(ref.String())}, rows[0])
	assert.Equal(t, ir.Row{ir.Integer(2), ir.VarChar("cap"), nil, ir.Boolean(false), nil}, rows[1])

	// UUIDs stored as text convert back
	got, err := ir.As[uuid.UUID](rows[0][4])
	require.NoError(t, err)
	assert.Equal(t, ref, got)
}

func TestQuery_WithParams(t *testing.T) {
	ctx := context.Background()
	s := createMemoryStore(t)

	require.NoError(t, s.Execute(ctx, "CREATE TABLE n (v INTEGER)", nil))
	for i := int32(1); i <= 5; i++ {
		require.NoError(t, s.Execute(ctx, "INSERT INTO n (v) VALUES (?)", []ir.Value{ir.Integer(i)}))
	}

	rows, err := s.Query(ctx, "SELECT v FROM n WHERE v > ? ORDER BY v", []ir.Value{ir.Integer(3)})
	require.NoError(t, err)
	assert.Equal(t, []ir.Row{{ir.Integer(4)}, {ir.Integer(5)}}, rows)

	rows, err = s.Query(ctx, "SELECT v FROM n WHERE v > ?", []ir.Value{ir.Integer(100)})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestExecute_NilParam(t *testing.T) {
	s := createMemoryStore(t)

	err := s.Execute(context.Background(), "SELECT ?", []ir.Value{nil})
	require.Error(t, err)
	assert.True(t, ir.IsMalformed(err))
}

func TestExecute_DriverError(t *testing.T) {
	s := createMemoryStore(t)

	err := s.Execute(context.Background(), "INSERT INTO missing (a) VALUES (1)", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such table")
}

func TestClose_ThenUse(t *testing.T) {
	s, err := OpenMemory()
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Error(t, s.Execute(context.Background(), "SELECT 1", nil))
	_, err = s.Query(context.Background(), "SELECT 1", nil)
	assert.Error(t, err)
}

func TestMemoryStore_PersistsBetweenCalls(t *testing.T) {
	ctx := context.Background()
	s := createMemoryStore(t)

	require.NoError(t, s.Execute(ctx, "CREATE TABLE kv (k TEXT)", nil))
	require.NoError(t, s.Execute(ctx, "INSERT INTO kv (k) VALUES ('a')", nil))

	rows, err := s.Query(ctx, "SELECT k FROM kv", nil)
	require.NoError(t, err)
	assert.Equal(t, []ir.Row{{ir.Text("a")}}, rows)
}
