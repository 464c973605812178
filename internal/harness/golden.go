package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ezql/internal/backend"
	"github.com/roach88/ezql/internal/ir"
	"github.com/roach88/ezql/internal/querysql"
)

// Snapshot renders a run as canonical JSON, the format of golden files
// and of `ezql run --format json`.
func Snapshot(scenario, dialect string, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, ev := range result.Trace {
		trace[i] = ev.canonical()
	}

	snap := map[string]any{
		"scenario": scenario,
		"dialect":  dialect,
		"pass":     result.Pass,
		"trace":    trace,
	}
	if len(result.Errors) > 0 {
		snap["errors"] = result.Errors
	}
	return ir.MarshalCanonical(snap)
}

// SnapshotPlan renders Plan output as canonical JSON.
func SnapshotPlan(scenario, dialect string, events []TraceEvent) ([]byte, error) {
	steps := make([]any, len(events))
	for i, ev := range events {
		steps[i] = ev.canonical()
	}
	return ir.MarshalCanonical(map[string]any{
		"scenario": scenario,
		"dialect":  dialect,
		"steps":    steps,
	})
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}_{dialect}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, d querysql.Dialect, ex backend.Executor) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, d, ex)
	if err != nil {
		return nil, err
	}

	return result, AssertGolden(t, scenario.Name, d.Name(), result)
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName, dialect string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(scenarioName, dialect, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName+"_"+dialect, snapshot)

	return nil
}
