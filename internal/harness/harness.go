package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/ezql/internal/backend"
	"github.com/roach88/ezql/internal/compiler"
	"github.com/roach88/ezql/internal/filter"
	"github.com/roach88/ezql/internal/ir"
	"github.com/roach88/ezql/internal/queryir"
	"github.com/roach88/ezql/internal/querysql"
)

// operation is a step resolved against its table: YAML scalars converted
// to typed values and the where filter parsed.
type operation struct {
	step   Step
	table  ir.Table
	rows   []ir.Row
	sel    queryir.SelectQueryParams
	update queryir.UpdateQueryParams
}

// Run executes a scenario against ex, compiling with d.
//
// Steps run in order through a backend.Backend. Each step's trace event
// carries the compiled SQL, bound parameters and, for selects, the
// realigned rows. An unexpected step failure is recorded in the result and
// stops the run; the returned error is reserved for harness failures.
//
// Run does not close ex.
func Run(ctx context.Context, s *Scenario, d querysql.Dialect, ex backend.Executor) (*Result, error) {
	if s == nil {
		return nil, fmt.Errorf("nil scenario")
	}
	b := backend.New(d, ex)
	result := NewResult()

	slog.Debug("running scenario",
		"scenario", s.Name,
		"dialect", d.Name(),
		"steps", len(s.Steps),
	)

	for i, step := range s.Steps {
		ev := TraceEvent{Op: step.Op, Table: step.Table, isSelect: step.Op == OpSelect}

		op, err := resolve(step, s.Tables)
		if err == nil {
			var q querysql.Query
			if q, err = compileOp(d, op); err == nil {
				ev.SQL, ev.Params, ev.compiled = q.SQL, q.Params, true
				ev.Rows, err = execute(ctx, b, op)
			}
		}
		if err != nil {
			ev.Error = err.Error()
		}

		recorded := result.addEvent(ev)
		if !checkStep(i, step, s.Tables, recorded, err, result) {
			slog.Warn("scenario stopped",
				"scenario", s.Name,
				"step", i,
				"error", err,
			)
			break
		}
	}

	return result, nil
}

// Plan compiles every step with d without touching a database.
// Steps that fail to resolve or compile carry the error in their event.
func Plan(s *Scenario, d querysql.Dialect) []TraceEvent {
	events := make([]TraceEvent, 0, len(s.Steps))
	for i, step := range s.Steps {
		ev := TraceEvent{Seq: int64(i + 1), Op: step.Op, Table: step.Table}
		op, err := resolve(step, s.Tables)
		if err == nil {
			var q querysql.Query
			if q, err = compileOp(d, op); err == nil {
				ev.SQL, ev.Params, ev.compiled = q.SQL, q.Params, true
			}
		}
		if err != nil {
			ev.Error = err.Error()
		}
		events = append(events, ev)
	}
	return events
}

// resolve converts a step's YAML shapes into query IR.
func resolve(step Step, tables []ir.Table) (operation, error) {
	table, err := compiler.FindTable(tables, step.Table)
	if err != nil {
		return operation{}, ir.NewMalformedError("%v", err)
	}
	op := operation{step: step, table: table}

	where, err := filter.Parse(table, step.Where)
	if err != nil {
		return operation{}, ir.NewMalformedError("where: %v", err)
	}

	switch step.Op {
	case OpInsert:
		op.rows = make([]ir.Row, len(step.Rows))
		for i, named := range step.Rows {
			row, err := buildRow(table, named)
			if err != nil {
				return operation{}, fmt.Errorf("rows[%d]: %w", i, err)
			}
			op.rows[i] = row
		}

	case OpSelect, OpDelete:
		op.sel = queryir.SelectQueryParams{
			Columns: step.Columns,
			Where:   where,
			Limit:   step.Limit,
			Offset:  step.Offset,
		}
		op.sel.OrderBy = queryir.ParseOrderBy(step.OrderBy)

	case OpUpdate:
		set, err := buildAssignments(table, step.Set)
		if err != nil {
			return operation{}, err
		}
		op.update = queryir.UpdateQueryParams{Set: set, Where: where}
	}

	return op, nil
}

func compileOp(d querysql.Dialect, op operation) (querysql.Query, error) {
	switch op.step.Op {
	case OpCreateTable:
		return d.CreateTable(op.step.IfExists, op.table)
	case OpDropTable:
		return d.DropTable(op.step.IfExists, op.table)
	case OpInsert:
		return d.Insert(op.table, op.rows)
	case OpSelect:
		return d.Select(op.table, op.sel)
	case OpDelete:
		return d.Delete(op.table, op.sel)
	case OpUpdate:
		return d.Update(op.table, op.update)
	default:
		return querysql.Query{}, ir.NewMalformedError("unknown op %q", op.step.Op)
	}
}

func execute(ctx context.Context, b *backend.Backend, op operation) ([]ir.Row, error) {
	switch op.step.Op {
	case OpCreateTable:
		return nil, b.CreateTable(ctx, op.step.IfExists, op.table)
	case OpDropTable:
		return nil, b.DropTable(ctx, op.step.IfExists, op.table)
	case OpInsert:
		return nil, b.Insert(ctx, op.table, op.rows)
	case OpSelect:
		return b.Select(ctx, op.table, op.sel)
	case OpDelete:
		return nil, b.Delete(ctx, op.table, op.sel)
	case OpUpdate:
		return nil, b.Update(ctx, op.table, op.update)
	default:
		return nil, ir.NewMalformedError("unknown op %q", op.step.Op)
	}
}

// buildRow places named scalars at their column positions.
// Unnamed columns stay absent.
func buildRow(table ir.Table, named map[string]any) (ir.Row, error) {
	row := make(ir.Row, len(table.Columns))
	for name, raw := range named {
		i, ok := table.ColumnIndex(name)
		if !ok {
			return nil, ir.NewMalformedError("unknown column %q in table %q", name, table.Name)
		}
		v, err := compiler.ValueFor(table.Columns[i].Type, raw)
		if err != nil {
			return nil, ir.NewConversionError("column %q: %v", name, err)
		}
		row[i] = v
	}
	return row, nil
}

// buildAssignments orders SET entries by table column position so the
// compiled statement is deterministic.
func buildAssignments(table ir.Table, set map[string]any) ([]queryir.Assignment, error) {
	for name := range set {
		if _, ok := table.ColumnIndex(name); !ok {
			return nil, ir.NewMalformedError("set: unknown column %q in table %q", name, table.Name)
		}
	}

	var out []queryir.Assignment
	for _, col := range table.Columns {
		raw, ok := set[col.Name]
		if !ok {
			continue
		}
		v, err := compiler.ValueFor(col.Type, raw)
		if err != nil {
			return nil, ir.NewConversionError("set %q: %v", col.Name, err)
		}
		out = append(out, queryir.Assignment{Column: col.Name, Value: v})
	}
	return out, nil
}
