package harness

import (
	"fmt"
	"io"

	"github.com/roach88/ezql/internal/ir"
)

// TraceEvent records one step of a scenario run.
//
// SQL and Params are empty when the step failed to compile. Rows is set
// for select steps only, realigned to full table width.
type TraceEvent struct {
	Seq    int64      `json:"seq"`
	Op     string     `json:"op"`
	Table  string     `json:"table"`
	SQL    string     `json:"sql,omitempty"`
	Params []ir.Value `json:"params,omitempty"`
	Rows   []ir.Row   `json:"rows,omitempty"`
	Error  string     `json:"error,omitempty"`

	compiled bool
	isSelect bool
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every step behaved as expected.
	Pass bool `json:"pass"`

	// Trace contains one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addEvent appends an event with the next sequence number and returns it.
func (r *Result) addEvent(ev TraceEvent) *TraceEvent {
	ev.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, ev)
	return &r.Trace[len(r.Trace)-1]
}

// canonical converts an event to a map for ir.MarshalCanonical.
func (ev TraceEvent) canonical() map[string]any {
	m := map[string]any{
		"seq":   ev.Seq,
		"op":    ev.Op,
		"table": ev.Table,
	}
	if ev.compiled {
		m["sql"] = ev.SQL
		m["params"] = ev.Params
	}
	if ev.isSelect && ev.Error == "" {
		m["rows"] = ev.Rows
	}
	if ev.Error != "" {
		m["error"] = ev.Error
	}
	return m
}

// WritePlan writes events as a readable transcript: a header per step
// followed by its SQL and parameters, or its error.
func WritePlan(w io.Writer, events []TraceEvent) error {
	for _, ev := range events {
		if _, err := fmt.Fprintf(w, "-- %d %s %s\n", ev.Seq, ev.Op, ev.Table); err != nil {
			return err
		}
		if ev.Error != "" {
			if _, err := fmt.Fprintf(w, "error: %s\n\n", ev.Error); err != nil {
				return err
			}
			continue
		}
		params, err := ir.MarshalCanonical(ev.Params)
		if err != nil {
			return fmt.Errorf("step %d: %w", ev.Seq, err)
		}
		if _, err := fmt.Fprintf(w, "%s\nparams: %s\n\n", ev.SQL, params); err != nil {
			return err
		}
	}
	return nil
}
