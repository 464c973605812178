package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/ezql/internal/compiler"
	"github.com/roach88/ezql/internal/ir"
)

// AssertionError is returned when a step's outcome does not match its
// expectation. It includes the trace so far to help debug the failure.
type AssertionError struct {
	Step     int          // Zero-based step index
	Type     string       // error, count, rows
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Trace up to and including the step
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: steps[%d] %s\n", e.Step, e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nTrace:\n")
	for _, ev := range e.Trace {
		switch {
		case ev.Error != "":
			fmt.Fprintf(&buf, "  [%d] %s %s: %s\n", ev.Seq, ev.Op, ev.Table, ev.Error)
		default:
			fmt.Fprintf(&buf, "  [%d] %s\n", ev.Seq, ev.SQL)
		}
	}

	return buf.String()
}

// checkStep compares a step's outcome with its expectation and records
// failures in result. It reports whether the run should continue.
func checkStep(index int, step Step, tables []ir.Table, ev *TraceEvent, err error, result *Result) bool {
	fail := func(typ, expected, actual string) {
		result.AddError((&AssertionError{
			Step:     index,
			Type:     typ,
			Expected: expected,
			Actual:   actual,
			Trace:    result.Trace,
		}).Error())
	}

	if step.Expect != nil && step.Expect.Error != "" {
		switch {
		case err == nil:
			fail("error", step.Expect.Error, "success")
		case !ir.HasCode(err, ir.ErrorCode(step.Expect.Error)):
			fail("error", step.Expect.Error, err.Error())
		}
		return true
	}

	if err != nil {
		fail("error", "success", err.Error())
		return false
	}

	if step.Expect == nil || step.Op != OpSelect {
		return true
	}

	if step.Expect.Count != nil && *step.Expect.Count != len(ev.Rows) {
		fail("count", fmt.Sprintf("%d rows", *step.Expect.Count), fmt.Sprintf("%d rows", len(ev.Rows)))
	}

	if step.Expect.Rows != nil {
		table, _ := compiler.FindTable(tables, step.Table)
		if err := matchRows(table, ev.Rows, step.Expect.Rows); err != nil {
			fail("rows", formatExpected(step.Expect.Rows), err.Error())
		}
	}

	return true
}

// matchRows compares rows against expected rows in order. Each expected
// row names only the columns it checks.
func matchRows(table ir.Table, rows []ir.Row, expected []map[string]any) error {
	if len(rows) != len(expected) {
		return fmt.Errorf("%d rows", len(rows))
	}

	for i, want := range expected {
		for _, name := range sortedKeys(want) {
			pos, ok := table.ColumnIndex(name)
			if !ok {
				return fmt.Errorf("row %d: unknown column %q", i, name)
			}
			wantVal, err := compiler.ValueFor(table.Columns[pos].Type, want[name])
			if err != nil {
				return fmt.Errorf("row %d: column %q: %v", i, name, err)
			}
			if pos >= len(rows[i]) || !ir.Equal(rows[i][pos], wantVal) {
				var got ir.Value
				if pos < len(rows[i]) {
					got = rows[i][pos]
				}
				return fmt.Errorf("row %d: column %s = %s, want %s", i, name, describe(got), describe(wantVal))
			}
		}
	}
	return nil
}

func describe(v ir.Value) string {
	if v == nil {
		return "NULL"
	}
	switch v.(type) {
	case ir.Integer, ir.Boolean:
		return v.String()
	}
	return fmt.Sprintf("%q", v.String())
}

func formatExpected(rows []map[string]any) string {
	parts := make([]string, len(rows))
	for i, row := range rows {
		fields := make([]string, 0, len(row))
		for _, k := range sortedKeys(row) {
			fields = append(fields, fmt.Sprintf("%s=%v", k, row[k]))
		}
		parts[i] = "{" + strings.Join(fields, " ") + "}"
	}
	return fmt.Sprintf("%d rows %s", len(rows), strings.Join(parts, " "))
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
