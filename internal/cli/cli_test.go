package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ezql/internal/backend"
	"github.com/roach88/ezql/internal/ir"
	"github.com/roach88/ezql/internal/querysql"
	"github.com/roach88/ezql/internal/store"
)

const usersCUE = `
table: users: columns: [
	{name: "id", type: "integer", primary_key: true},
	{name: "name", type: "varchar", length: 255, not_null: true},
	{name: "is_active", type: "boolean", default: false},
]
`

const usersScenario = `
name: cli_users
description: "round trip through the CLI"
schema: users.cue
steps:
  - op: create_table
    table: users
    if_exists: true
  - op: insert
    table: users
    rows:
      - {name: John, is_active: true}
      - {name: Jane}
  - op: select
    table: users
    columns: [name]
    where: "is_active"
    expect:
      rows:
        - {name: John}
  - op: insert
    table: users
    rows: []
    expect:
      error: MALFORMED_QUERY_IR
`

// testFs holds the users schema and scenario under /work.
func testFs(t *testing.T) afero.Fs {
	t.Helper()
	for _, k := range []string{"EZQL_DIALECT", "EZQL_DSN", "EZQL_LOG_LEVEL", "EZQL_FORMAT"} {
		t.Setenv(k, "")
	}
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/users.cue", []byte(usersCUE), 0644))
	require.NoError(t, afero.WriteFile(fs, "/work/users.yaml", []byte(usersScenario), 0644))
	return fs
}

// execute runs the CLI with args and returns stdout, stderr and the error.
func execute(t *testing.T, fs afero.Fs, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(fs)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ezql", cmd.Use)

	for _, name := range []string{"schema", "compile", "run", "query"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err, "Command %s should exist", name)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "dialect", "dsn"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, testFs(t), "schema", "/work/users.cue", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, Reported(err))
}

func TestSchemaCommand_Text(t *testing.T) {
	out, _, err := execute(t, testFs(t), "schema", "/work/users.cue")
	require.NoError(t, err)

	assert.Contains(t, out, "TABLE: users")
	assert.Contains(t, out, "VARCHAR(255)")
	assert.Contains(t, out, "CREATE TABLE users (id INTEGER PRIMARY KEY, name VARCHAR(255) NOT NULL, is_active BOOLEAN DEFAULT FALSE)")
}

func TestSchemaCommand_JSON(t *testing.T) {
	out, _, err := execute(t, testFs(t), "schema", "/work/users.cue", "--format", "json", "--dialect", "postgres")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Dialect string        `json:"dialect"`
			Tables  []SchemaTable `json:"tables"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "postgres", resp.Data.Dialect)
	require.Len(t, resp.Data.Tables, 1)

	users := resp.Data.Tables[0]
	assert.Contains(t, users.CreateSQL, "GENERATED BY DEFAULT AS IDENTITY")
	require.Len(t, users.Columns, 3)
	assert.True(t, users.Columns[0].PrimaryKey)
	assert.True(t, users.Columns[1].NotNull)
	assert.Equal(t, false, users.Columns[2].Default)
}

func TestSchemaCommand_Errors(t *testing.T) {
	fs := testFs(t)

	out, _, err := execute(t, fs, "schema", "/work/missing.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeSchema)

	out, _, err = execute(t, fs, "schema", "/work/users.cue", "--table", "posts", "--format", "json")
	require.Error(t, err)
	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeSchema, resp.Error.Code)
}

func TestCompileCommand_Text(t *testing.T) {
	out, _, err := execute(t, testFs(t), "compile", "/work/users.yaml", "--dialect", "postgres")
	require.NoError(t, err)

	assert.Contains(t, out, "-- 2 insert users\nINSERT INTO users (name, is_active) VALUES ($1, $2), ($3, FALSE)\nparams: [\"John\",true,\"Jane\"]\n")
	assert.Contains(t, out, "-- 3 select users\nSELECT name FROM users WHERE is_active = $1\n")
	assert.Contains(t, out, "-- 4 insert users\nerror: MALFORMED_QUERY_IR")
}

func TestCompileCommand_JSON(t *testing.T) {
	out, _, err := execute(t, testFs(t), "compile", "/work/users.yaml", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Dialect string           `json:"dialect"`
			Steps   []map[string]any `json:"steps"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "sqlite", resp.Data.Dialect)
	require.Len(t, resp.Data.Steps, 4)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS users (id INTEGER PRIMARY KEY, name VARCHAR(255) NOT NULL, is_active BOOLEAN DEFAULT FALSE)", resp.Data.Steps[0]["sql"])
}

func TestCompileCommand_MissingScenario(t *testing.T) {
	out, _, err := execute(t, testFs(t), "compile", "/work/nope.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeScenario)
}

func TestRunCommand_Pass(t *testing.T) {
	out, _, err := execute(t, testFs(t), "run", "/work/users.yaml", "--dsn", ":memory:")
	require.NoError(t, err)
	assert.Contains(t, out, "PASS cli_users (4 steps, sqlite)")
}

func TestRunCommand_JSON(t *testing.T) {
	out, _, err := execute(t, testFs(t), "run", "/work/users.yaml", "--dsn", ":memory:", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Pass  bool             `json:"pass"`
			Trace []map[string]any `json:"trace"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.True(t, resp.Data.Pass)
	assert.Len(t, resp.Data.Trace, 4)
}

func TestRunCommand_Fail(t *testing.T) {
	fs := testFs(t)
	require.NoError(t, afero.WriteFile(fs, "/work/fail.yaml", []byte(`
name: failing
description: "expects a row that is not there"
schema: users.cue
steps:
  - op: create_table
    table: users
  - op: select
    table: users
    expect:
      count: 1
`), 0644))

	out, _, err := execute(t, fs, "run", "/work/fail.yaml", "--dsn", ":memory:")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, Reported(err))
	assert.Contains(t, out, "FAIL failing")
	assert.Contains(t, out, "Expected: 1 rows")
}

func TestRunCommand_VerboseTrace(t *testing.T) {
	_, stderr, err := execute(t, testFs(t), "run", "/work/users.yaml", "--dsn", ":memory:", "-v")
	require.NoError(t, err)
	assert.Contains(t, stderr, "[1] CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, stderr, "[4] insert users: MALFORMED_QUERY_IR")
}

func TestQueryCommand_CompileOnly(t *testing.T) {
	out, _, err := execute(t, testFs(t), "query", "/work/users.cue",
		"--where", "is_active AND name LIKE 'J%'",
		"--columns", "id,name",
		"--order", "-id",
		"--limit", "2",
	)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name FROM users WHERE (is_active = ?) AND (name LIKE ?) ORDER BY id DESC LIMIT 2\n"+
		`params: [true,"J%"]`+"\n", out)
}

func TestQueryCommand_Exec(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "users.db")
	seedUsers(t, dbPath)

	out, _, err := execute(t, testFs(t), "query", "/work/users.cue",
		"--table", "users",
		"--where", "NOT is_active",
		"--dsn", dbPath,
		"--exec",
		"--format", "json",
	)
	require.NoError(t, err)

	var resp struct {
		Data struct {
			SQL  string  `json:"sql"`
			Rows [][]any `json:"rows"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "SELECT * FROM users WHERE NOT (is_active = ?)", resp.Data.SQL)
	require.Len(t, resp.Data.Rows, 1)
	assert.Equal(t, "Jane", resp.Data.Rows[0][1])
}

func TestQueryCommand_ExecText(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "users.db")
	seedUsers(t, dbPath)

	out, _, err := execute(t, testFs(t), "query", "/work/users.cue", "--columns", "name", "--order", "name", "--dsn", dbPath, "--exec")
	require.NoError(t, err)
	assert.Contains(t, out, "Jane")
	assert.Contains(t, out, "John")
	assert.Contains(t, out, "(2 rows)")
}

func TestQueryCommand_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantExit int
		wantCode string
	}{
		{"bad filter", []string{"--where", "name ="}, ExitFailure, ErrCodeCompile},
		{"unknown column", []string{"--where", "age = 3"}, ExitFailure, ErrCodeCompile},
		{"unknown table", []string{"--table", "posts"}, ExitCommandError, ErrCodeSchema},
		{"empty columns", []string{"--columns", ""}, ExitFailure, ErrCodeCompile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"query", "/work/users.cue", "--format", "json"}, tt.args...)
			out, _, err := execute(t, testFs(t), args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			resp := decodeResponse(t, out)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestConfigFileSetsDialect(t *testing.T) {
	fs := testFs(t)
	require.NoError(t, afero.WriteFile(fs, "/etc/ezql.yaml", []byte("dialect: mysql\n"), 0644))

	out, _, err := execute(t, fs, "query", "/work/users.cue", "--where", "id = 1", "--config", "/etc/ezql.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "SELECT * FROM users WHERE id = ?")

	out, _, err = execute(t, fs, "query", "/work/users.cue", "--where", "id = 1", "--config", "/etc/ezql.yaml", "--dialect", "postgres")
	require.NoError(t, err)
	assert.Contains(t, out, "WHERE id = $1")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "x", assert.AnError)))
	assert.False(t, Reported(NewExitError(ExitFailure, "x")))
}

// seedUsers creates a SQLite file with John (active) and Jane.
func seedUsers(t *testing.T, path string) {
	t.Helper()
	st, err := store.OpenSQLite(path)
	require.NoError(t, err)

	table := ir.Table{
		Name: "users",
		Columns: []ir.Column{
			{Name: "id", Type: ir.IntegerType{}, Properties: []ir.ColumnProperty{ir.PrimaryKey{}}},
			{Name: "name", Type: ir.VarCharType{Length: 255}, Properties: []ir.ColumnProperty{ir.NotNull{}}},
			{Name: "is_active", Type: ir.BooleanType{}, Properties: []ir.ColumnProperty{ir.DefaultOf(false)}},
		},
	}
	b := backend.New(querysql.NewSQLite(), st)
	ctx := context.Background()
	require.NoError(t, b.CreateTable(ctx, false, table))
	require.NoError(t, b.Insert(ctx, table, []ir.Row{
		{nil, ir.VarChar("John"), ir.Boolean(true)},
		{nil, ir.VarChar("Jane"), nil},
	}))
	require.NoError(t, b.Close())
}
