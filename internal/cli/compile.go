package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/ezql/internal/harness"
	"github.com/roach88/ezql/internal/watch"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Watch bool
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <scenario.yaml>",
		Short: "Print the SQL a scenario compiles to",
		Long: `Compile every step of a scenario for the configured dialect and print
the statements and bound parameters. No database is opened.

Steps that do not compile are listed with their error; this is expected
for steps that declare an error expectation.

Example:
  ezql compile scenarios/users.yaml --dialect postgres
  ezql compile scenarios/users.yaml --watch`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "recompile when the scenario or its schema changes")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	scenario, err := compileOnce(opts, path, f)
	if err != nil || !opts.Watch {
		return err
	}

	schemaPath := scenario.Schema
	if !filepath.IsAbs(schemaPath) {
		schemaPath = filepath.Join(filepath.Dir(path), schemaPath)
	}
	w, err := watch.New([]string{path, schemaPath}, watch.DefaultDebounce)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeGeneric, "failed to watch files", err)
	}
	defer w.Close()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	f.Note("Watching %s and %s. Press Ctrl-C to stop.", path, schemaPath)
	return w.Run(ctx, func() error {
		_, err := compileOnce(opts, path, f)
		if Reported(err) {
			return nil
		}
		return err
	})
}

// compileOnce loads the scenario and prints its plan.
func compileOnce(opts *CompileOptions, path string, f *OutputFormatter) (*harness.Scenario, error) {
	d, err := opts.dialect()
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeConfig, "invalid dialect", err)
	}

	scenario, err := harness.LoadScenario(opts.Fs, path)
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeScenario, "failed to load scenario", err)
	}

	events := harness.Plan(scenario, d)
	f.VerboseLog("Compiled %d step(s) of %s for %s", len(events), scenario.Name, d.Name())

	if f.Format == "json" {
		snap, err := harness.SnapshotPlan(scenario.Name, d.Name(), events)
		if err != nil {
			return nil, f.fail(ExitFailure, ErrCodeGeneric, "failed to encode plan", err)
		}
		return scenario, f.Success(json.RawMessage(snap))
	}

	var buf bytes.Buffer
	if err := harness.WritePlan(&buf, events); err != nil {
		return nil, f.fail(ExitFailure, ErrCodeGeneric, "failed to write plan", err)
	}
	fmt.Fprint(f.Writer, buf.String())
	return scenario, nil
}
