package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/roach88/ezql/internal/backend"
	"github.com/roach88/ezql/internal/compiler"
	"github.com/roach88/ezql/internal/filter"
	"github.com/roach88/ezql/internal/ir"
	"github.com/roach88/ezql/internal/queryir"
	"github.com/roach88/ezql/internal/querysql"
	"github.com/roach88/ezql/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Table   string
	Where   string
	Columns []string
	Order   string
	Limit   int
	Offset  int
	Exec    bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <schema>",
		Short: "Compile a select, and optionally run it",
		Long: `Compile a SELECT over a table of a schema file using the filter syntax,
print the SQL and its parameters, and with --exec run it against the
configured database.

Example:
  ezql query schemas/users.cue --table users --where "is_active AND name LIKE 'J%'" --order -id --limit 10
  ezql query schemas/users.cue --table users --columns id,name --exec --dsn ./scratch.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Table, "table", "t", "", "table to select from (optional if the schema has one table)")
	cmd.Flags().StringVarP(&opts.Where, "where", "w", "", `filter, e.g. "name = 'John' AND NOT is_active"`)
	cmd.Flags().StringSliceVarP(&opts.Columns, "columns", "c", nil, "columns to select (default all)")
	cmd.Flags().StringVarP(&opts.Order, "order", "o", "", "order by column, prefix with - for descending")
	cmd.Flags().IntVar(&opts.Limit, "limit", -1, "maximum rows (-1 for no limit)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "rows to skip")
	cmd.Flags().BoolVar(&opts.Exec, "exec", false, "run the query against the configured database")

	return cmd
}

func runQuery(opts *QueryOptions, schemaPath string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	d, err := opts.dialect()
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeConfig, "invalid dialect", err)
	}

	tables, err := compiler.LoadFile(opts.Fs, schemaPath)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeSchema, "failed to load schema", err)
	}
	table, err := pickTable(tables, opts.Table)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeSchema, "unknown table", err)
	}

	params, err := opts.selectParams(table)
	if err != nil {
		return f.fail(ExitFailure, ErrCodeCompile, "invalid query", err)
	}

	q, err := d.Select(table, params)
	if err != nil {
		return f.fail(ExitFailure, ErrCodeCompile, "query does not compile", err)
	}

	if !opts.Exec {
		return printQuery(f, q, nil, false)
	}

	rows, err := execQuery(cmd, opts, d, table, params)
	if err != nil {
		return f.fail(ExitFailure, ErrCodeExec, "query failed", err)
	}
	if err := printQuery(f, q, rows, true); err != nil {
		return err
	}
	if f.Format != "json" {
		return printRows(f, table, params.Columns, rows)
	}
	return nil
}

func pickTable(tables []ir.Table, name string) (ir.Table, error) {
	if name == "" {
		if len(tables) == 1 {
			return tables[0], nil
		}
		return ir.Table{}, fmt.Errorf("schema has %d tables, pick one with --table", len(tables))
	}
	return compiler.FindTable(tables, name)
}

func (o *QueryOptions) selectParams(table ir.Table) (queryir.SelectQueryParams, error) {
	where, err := filter.Parse(table, o.Where)
	if err != nil {
		return queryir.SelectQueryParams{}, err
	}

	p := queryir.SelectQueryParams{
		Columns: o.Columns,
		Where:   where,
		OrderBy: queryir.ParseOrderBy(o.Order),
	}
	if o.Limit >= 0 {
		p.Limit = queryir.Int(o.Limit)
	}
	if o.Offset > 0 {
		p.Offset = queryir.Int(o.Offset)
	}
	return p, nil
}

func execQuery(cmd *cobra.Command, opts *QueryOptions, d querysql.Dialect, table ir.Table, p queryir.SelectQueryParams) ([]ir.Row, error) {
	st, err := store.Open(opts.Dialect, opts.DSN)
	if err != nil {
		return nil, err
	}
	b := backend.New(d, st)
	defer func() {
		if closeErr := b.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return b.Select(ctx, table, p)
}

// printQuery writes the statement, and in JSON mode the rows too.
func printQuery(f *OutputFormatter, q querysql.Query, rows []ir.Row, executed bool) error {
	if f.Format == "json" {
		payload := map[string]any{"sql": q.SQL, "params": q.Params}
		if executed {
			payload["rows"] = rows
		}
		data, err := ir.MarshalCanonical(payload)
		if err != nil {
			return f.fail(ExitFailure, ErrCodeGeneric, "failed to encode query", err)
		}
		return f.Success(json.RawMessage(data))
	}

	params, err := ir.MarshalCanonical(q.Params)
	if err != nil {
		return f.fail(ExitFailure, ErrCodeGeneric, "failed to encode params", err)
	}
	fmt.Fprintf(f.Writer, "%s\nparams: %s\n", q.SQL, params)
	return nil
}

// printRows renders the selected columns of rows as a table.
func printRows(f *OutputFormatter, table ir.Table, columns []string, rows []ir.Row) error {
	if len(columns) == 0 {
		columns = table.ColumnNames()
	}

	data := pterm.TableData{columns}
	for _, row := range rows {
		line := make([]string, len(columns))
		for i, name := range columns {
			pos, _ := table.ColumnIndex(name)
			if v := row[pos]; v != nil {
				line[i] = v.String()
			} else {
				line[i] = "NULL"
			}
		}
		data = append(data, line)
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return f.fail(ExitFailure, ErrCodeGeneric, "failed to render rows", err)
	}
	fmt.Fprintln(f.Writer, out)
	f.Note("(%d rows)", len(rows))
	return nil
}
