package backend

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/roach88/ezql/internal/ir"
	"github.com/roach88/ezql/internal/queryir"
	"github.com/roach88/ezql/internal/querysql"
)

// ErrBackendClosed is returned by every Backend method after Close.
var ErrBackendClosed = errors.New("backend: closed")

// Executor is the execution seam: it runs compiled SQL against a live
// engine. *store.Store is the production implementation.
//
// Query returns rows aligned to the statement's projection, with nil for
// SQL NULL.
type Executor interface {
	Execute(ctx context.Context, sql string, params []ir.Value) error
	Query(ctx context.Context, sql string, params []ir.Value) ([]ir.Row, error)
	Close() error
}

// Backend compiles schema and DML operations with a Dialect and forwards
// the resulting statements to an Executor.
//
// CRITICAL: compilation always happens first. A statement that fails to
// compile never reaches the executor.
//
// Thread-safety: calls are serialized on one logical connection handle.
type Backend struct {
	mu      sync.Mutex
	dialect querysql.Dialect
	ex      Executor
	closed  bool
}

// New creates a Backend that owns ex. Close releases it.
func New(d querysql.Dialect, ex Executor) *Backend {
	return &Backend{dialect: d, ex: ex}
}

// Dialect returns the dialect statements are compiled with.
func (b *Backend) Dialect() querysql.Dialect {
	return b.dialect
}

// CreateTable runs CREATE TABLE for t.
func (b *Backend) CreateTable(ctx context.Context, ifNotExists bool, t ir.Table) error {
	q, err := b.dialect.CreateTable(ifNotExists, t)
	if err != nil {
		return err
	}
	return b.execute(ctx, "create table "+t.Name, q)
}

// DropTable runs DROP TABLE for t.
func (b *Backend) DropTable(ctx context.Context, ifExists bool, t ir.Table) error {
	q, err := b.dialect.DropTable(ifExists, t)
	if err != nil {
		return err
	}
	return b.execute(ctx, "drop table "+t.Name, q)
}

// Insert writes rows into t in a single statement.
func (b *Backend) Insert(ctx context.Context, t ir.Table, rows []ir.Row) error {
	q, err := b.dialect.Insert(t, rows)
	if err != nil {
		return err
	}
	return b.execute(ctx, "insert into "+t.Name, q)
}

// Delete removes the rows of t matching p.Where.
func (b *Backend) Delete(ctx context.Context, t ir.Table, p queryir.SelectQueryParams) error {
	q, err := b.dialect.Delete(t, p)
	if err != nil {
		return err
	}
	return b.execute(ctx, "delete from "+t.Name, q)
}

// Update applies p.Set to the rows of t matching p.Where.
func (b *Backend) Update(ctx context.Context, t ir.Table, p queryir.UpdateQueryParams) error {
	q, err := b.dialect.Update(t, p)
	if err != nil {
		return err
	}
	return b.execute(ctx, "update "+t.Name, q)
}

// Select returns the rows of t matching p.
//
// Every returned row has one slot per table column, in table order, even
// when p.Columns projects a subset; unselected slots are nil.
func (b *Backend) Select(ctx context.Context, t ir.Table, p queryir.SelectQueryParams) ([]ir.Row, error) {
	q, err := b.dialect.Select(t, p)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBackendClosed
	}

	b.logStatement(q)
	rows, err := b.ex.Query(ctx, q.SQL, q.Params)
	if err != nil {
		slog.Warn("statement failed",
			"dialect", b.dialect.Name(),
			"sql", q.SQL,
			"error", err,
		)
		return nil, ir.NewExecError("select from "+t.Name, err)
	}
	return realign(t, p.Columns, rows)
}

// Close releases the executor. Every later call, including another Close,
// returns ErrBackendClosed.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBackendClosed
	}
	b.closed = true
	if err := b.ex.Close(); err != nil {
		return ir.NewExecError("close", err)
	}
	return nil
}

func (b *Backend) execute(ctx context.Context, op string, q querysql.Query) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBackendClosed
	}

	b.logStatement(q)
	if err := b.ex.Execute(ctx, q.SQL, q.Params); err != nil {
		slog.Warn("statement failed",
			"dialect", b.dialect.Name(),
			"sql", q.SQL,
			"error", err,
		)
		return ir.NewExecError(op, err)
	}
	return nil
}

func (b *Backend) logStatement(q querysql.Query) {
	slog.Debug("executing statement",
		"dialect", b.dialect.Name(),
		"sql", q.SQL,
		"params", len(q.Params),
	)
}

// realign pads projected rows out to the full table width.
// A nil projection means every column was selected in table order.
func realign(t ir.Table, columns []string, rows []ir.Row) ([]ir.Row, error) {
	positions := make([]int, 0, len(t.Columns))
	if columns == nil {
		for i := range t.Columns {
			positions = append(positions, i)
		}
	} else {
		for _, name := range columns {
			pos, ok := t.ColumnIndex(name)
			if !ok {
				return nil, ir.NewMalformedError("select from %q: unknown column %q", t.Name, name)
			}
			positions = append(positions, pos)
		}
	}

	out := make([]ir.Row, len(rows))
	for r, row := range rows {
		if len(row) != len(positions) {
			return nil, ir.NewConversionError("select from %q: row %d has %d values, projection has %d columns",
				t.Name, r, len(row), len(positions))
		}
		full := make(ir.Row, len(t.Columns))
		for i, pos := range positions {
			full[pos] = row[i]
		}
		out[r] = full
	}
	return out, nil
}
