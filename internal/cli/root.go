package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/ezql/internal/config"
	"github.com/roach88/ezql/internal/querysql"
)

// RootOptions holds global flags for all commands, merged with config in
// PersistentPreRunE.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	Dialect    string
	DSN        string

	// Fs is where schema, scenario and config files are read from.
	Fs afero.Fs

	// Config is the loaded configuration, set before any RunE.
	Config *config.Config
}

// NewRootCommand creates the root command for the ezql CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(afero.NewOsFs())
}

func newRootCommand(fs afero.Fs) *cobra.Command {
	opts := &RootOptions{Fs: fs}

	cmd := &cobra.Command{
		Use:   "ezql",
		Short: "ezql - dialect-driven SQL compiler",
		Long: `Compile typed table schemas and query IR into SQL for SQLite,
PostgreSQL and MySQL, and run scripted scenarios against a live database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default ./ezql.yaml or ~/.config/ezql/ezql.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Dialect, "dialect", "", "SQL dialect (sqlite|postgres|mysql)")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "database connection string")

	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))

	return cmd
}

// resolve loads config and lets explicitly set flags override it.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{Fs: o.Fs, ConfigFile: o.ConfigFile})
	if err != nil {
		return o.formatter(cmd).fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = o.Format
	}
	if flags.Changed("dialect") {
		cfg.Dialect = o.Dialect
	}
	if flags.Changed("dsn") {
		cfg.DSN = o.DSN
	}
	if err := cfg.Validate(); err != nil {
		return o.formatter(cmd).fail(ExitCommandError, ErrCodeConfig, "invalid flags", err)
	}
	o.Format, o.Dialect, o.DSN = cfg.Format, cfg.Dialect, cfg.DSN
	o.Config = cfg

	// Configure logging based on verbose flag and log_level
	level, _ := cfg.Level()
	if o.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	return nil
}

// dialect returns the configured dialect compiler.
func (o *RootOptions) dialect() (querysql.Dialect, error) {
	d, err := querysql.New(o.Dialect)
	if err != nil {
		return nil, fmt.Errorf("dialect: %w", err)
	}
	return d, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}
