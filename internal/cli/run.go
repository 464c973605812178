package cli

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/ezql/internal/harness"
	"github.com/roach88/ezql/internal/store"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Execute a scenario against a database",
		Long: `Execute a scenario against the configured database and check every
step's expectation. Exits 1 if any expectation fails.

Example:
  ezql run scenarios/users.yaml --dsn ./scratch.db
  ezql run scenarios/users.yaml --dialect postgres --dsn postgres://localhost/app --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runScenario(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	d, err := opts.dialect()
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeConfig, "invalid dialect", err)
	}

	scenario, err := harness.LoadScenario(opts.Fs, path)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeScenario, "failed to load scenario", err)
	}

	slog.Info("opening database", "dialect", opts.Dialect)
	st, err := store.Open(opts.Dialect, opts.DSN)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeExec, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := harness.Run(ctx, scenario, d, st)
	if err != nil {
		return f.fail(ExitFailure, ErrCodeGeneric, "scenario could not run", err)
	}

	if f.Format == "json" {
		snap, err := harness.Snapshot(scenario.Name, d.Name(), result)
		if err != nil {
			return f.fail(ExitFailure, ErrCodeGeneric, "failed to encode result", err)
		}
		if err := f.Success(json.RawMessage(snap)); err != nil {
			return err
		}
	} else {
		for _, ev := range result.Trace {
			if ev.Error != "" {
				f.VerboseLog("[%d] %s %s: %s", ev.Seq, ev.Op, ev.Table, ev.Error)
				continue
			}
			f.VerboseLog("[%d] %s", ev.Seq, ev.SQL)
		}
		if result.Pass {
			f.Pass("%s (%d steps, %s)", scenario.Name, len(result.Trace), d.Name())
		} else {
			f.Fail("%s (%d of %d steps ran, %s)", scenario.Name, len(result.Trace), len(scenario.Steps), d.Name())
			for _, e := range result.Errors {
				f.Note("%s", e)
			}
		}
	}

	if !result.Pass {
		return &ExitError{Code: ExitFailure, Message: "scenario failed: " + scenario.Name, reported: true}
	}
	return nil
}
