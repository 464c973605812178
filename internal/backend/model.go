package backend

import (
	"context"

	"github.com/roach88/ezql/internal/ir"
	"github.com/roach88/ezql/internal/model"
	"github.com/roach88/ezql/internal/queryir"
)

// ModelBackend runs Backend operations on records of type T.
//
// The table is derived from T once, at construction. Records are encoded
// with ColumnValues and decoded with FromColumnValues; arity mismatches and
// failed slot coercions are CONVERSION_ERROR.
type ModelBackend[T any, PT model.Pointer[T]] struct {
	backend *Backend
	table   ir.Table
}

// NewModelBackend wraps b for records of type T. The ModelBackend takes
// ownership of b.
func NewModelBackend[T any, PT model.Pointer[T]](b *Backend) *ModelBackend[T, PT] {
	return &ModelBackend[T, PT]{
		backend: b,
		table:   model.TableOf[T, PT](),
	}
}

// Table returns the table derived from T.
func (m *ModelBackend[T, PT]) Table() ir.Table {
	return m.table
}

// Backend returns the underlying Backend.
func (m *ModelBackend[T, PT]) Backend() *Backend {
	return m.backend
}

// CreateTable creates T's table.
func (m *ModelBackend[T, PT]) CreateTable(ctx context.Context, ifNotExists bool) error {
	return m.backend.CreateTable(ctx, ifNotExists, m.table)
}

// DropTable drops T's table.
func (m *ModelBackend[T, PT]) DropTable(ctx context.Context, ifExists bool) error {
	return m.backend.DropTable(ctx, ifExists, m.table)
}

// Insert encodes every record and writes them in one statement. A nil
// record is a MalformedQueryIR.
func (m *ModelBackend[T, PT]) Insert(ctx context.Context, records ...*T) error {
	rows := make([]ir.Row, len(records))
	for i, rec := range records {
		if rec == nil {
			return ir.NewMalformedError("insert into %q: record %d is nil", m.table.Name, i)
		}
		row, err := model.Encode(PT(rec))
		if err != nil {
			return err
		}
		rows[i] = row
	}
	return m.backend.Insert(ctx, m.table, rows)
}

// Select returns the records matching p. Columns left out of a projection
// decode from absent slots.
func (m *ModelBackend[T, PT]) Select(ctx context.Context, p queryir.SelectQueryParams) ([]T, error) {
	rows, err := m.backend.Select(ctx, m.table, p)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		rec, err := model.Decode[T, PT](row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Delete removes the records matching p.Where.
func (m *ModelBackend[T, PT]) Delete(ctx context.Context, p queryir.SelectQueryParams) error {
	return m.backend.Delete(ctx, m.table, p)
}

// Update applies p to T's table.
func (m *ModelBackend[T, PT]) Update(ctx context.Context, p queryir.UpdateQueryParams) error {
	return m.backend.Update(ctx, m.table, p)
}

// Close closes the underlying Backend.
func (m *ModelBackend[T, PT]) Close() error {
	return m.backend.Close()
}
