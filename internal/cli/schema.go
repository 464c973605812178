package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/roach88/ezql/internal/compiler"
	"github.com/roach88/ezql/internal/ir"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	Table string // print only this table
}

// SchemaTable is the JSON shape of one compiled table.
type SchemaTable struct {
	Name      string         `json:"name"`
	Columns   []SchemaColumn `json:"columns"`
	CreateSQL string         `json:"create_sql"`
}

// SchemaColumn is the JSON shape of one column.
type SchemaColumn struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	PrimaryKey bool   `json:"primary_key,omitempty"`
	NotNull    bool   `json:"not_null,omitempty"`
	Unique     bool   `json:"unique,omitempty"`
	Default    any    `json:"default,omitempty"`
}

var headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema <file.cue|file.yaml>",
		Short: "Compile a schema file and print its tables",
		Long: `Compile a CUE or YAML schema file, validate it, and print each table
with the CREATE TABLE statement for the configured dialect.

Example:
  ezql schema schemas/users.cue
  ezql schema schemas/users.yaml --dialect postgres --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Table, "table", "t", "", "print only this table")

	return cmd
}

func runSchema(opts *SchemaOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	d, err := opts.dialect()
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeConfig, "invalid dialect", err)
	}

	tables, err := compiler.LoadFile(opts.Fs, path)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeSchema, "failed to load schema", err)
	}
	f.VerboseLog("Loaded %d table(s) from %s", len(tables), path)

	if opts.Table != "" {
		t, err := compiler.FindTable(tables, opts.Table)
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeSchema, "unknown table", err)
		}
		tables = []ir.Table{t}
	}

	out := make([]SchemaTable, 0, len(tables))
	for _, t := range tables {
		q, err := d.CreateTable(false, t)
		if err != nil {
			return f.fail(ExitFailure, ErrCodeCompile, fmt.Sprintf("table %s does not compile", t.Name), err)
		}
		out = append(out, SchemaTable{Name: t.Name, Columns: schemaColumns(t), CreateSQL: q.SQL})
	}

	if f.Format == "json" {
		return f.Success(map[string]any{"dialect": d.Name(), "tables": out})
	}

	var sb strings.Builder
	for i, t := range tables {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(headingStyle.Render(t.Name))
		sb.WriteString("\n")
		sb.WriteString(t.String())
		sb.WriteString(out[i].CreateSQL)
		sb.WriteString("\n")
	}
	fmt.Fprint(f.Writer, sb.String())
	return nil
}

func schemaColumns(t ir.Table) []SchemaColumn {
	cols := make([]SchemaColumn, len(t.Columns))
	for i, c := range t.Columns {
		sc := SchemaColumn{
			Name:       c.Name,
			Type:       c.Type.String(),
			PrimaryKey: c.IsPrimaryKey(),
			NotNull:    c.IsNotNull(),
		}
		for _, p := range c.Properties {
			if _, ok := p.(ir.Unique); ok {
				sc.Unique = true
			}
		}
		if def, ok := c.DefaultValue(); ok {
			sc.Default = def.Arg()
		}
		cols[i] = sc
	}
	return cols
}
