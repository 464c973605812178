package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/ezql/internal/ir"
)

// ErrExecutorClosed is returned by RecordingExecutor after Close.
var ErrExecutorClosed = errors.New("testutil: executor closed")

// StatementKind distinguishes Execute from Query calls.
type StatementKind string

const (
	KindExecute StatementKind = "execute"
	KindQuery   StatementKind = "query"
)

// Statement is one call observed by a RecordingExecutor.
type Statement struct {
	Seq    int64
	Kind   StatementKind
	SQL    string
	Params []ir.Value
}

// RecordingExecutor is an in-memory execution seam for tests.
//
// It records every statement it receives with a monotonic sequence number
// starting at 1, returns queued result sets from Query in FIFO order, and
// can be told to fail the next call.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type RecordingExecutor struct {
	mu         sync.Mutex
	seq        int64
	statements []Statement
	results    [][]ir.Row
	failNext   error
	closed     bool
	closeCalls int
}

// NewRecordingExecutor creates an executor with no queued results.
func NewRecordingExecutor() *RecordingExecutor {
	return &RecordingExecutor{}
}

// QueueRows appends a result set for a future Query call.
func (r *RecordingExecutor) QueueRows(rows ...ir.Row) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, rows)
}

// FailNext makes the next Execute or Query return err.
func (r *RecordingExecutor) FailNext(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNext = err
}

// Execute records the statement.
func (r *RecordingExecutor) Execute(_ context.Context, sql string, params []ir.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record(KindExecute, sql, params)
}

// Query records the statement and returns the oldest queued result set,
// or no rows when the queue is empty.
func (r *RecordingExecutor) Query(_ context.Context, sql string, params []ir.Value) ([]ir.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(KindQuery, sql, params); err != nil {
		return nil, err
	}
	if len(r.results) == 0 {
		return nil, nil
	}
	rows := r.results[0]
	r.results = r.results[1:]
	return rows, nil
}

// record must be called with mu held.
func (r *RecordingExecutor) record(kind StatementKind, sql string, params []ir.Value) error {
	if r.closed {
		return ErrExecutorClosed
	}
	r.seq++
	r.statements = append(r.statements, Statement{
		Seq:    r.seq,
		Kind:   kind,
		SQL:    sql,
		Params: append([]ir.Value(nil), params...),
	})
	if err := r.failNext; err != nil {
		r.failNext = nil
		return err
	}
	return nil
}

// Close marks the executor closed. Later calls fail with ErrExecutorClosed.
func (r *RecordingExecutor) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.closeCalls++
	return nil
}

// Statements returns a copy of everything recorded so far.
func (r *RecordingExecutor) Statements() []Statement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Statement(nil), r.statements...)
}

// SQL returns just the SQL text of every recorded statement.
func (r *RecordingExecutor) SQL() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.statements))
	for i, s := range r.statements {
		out[i] = s.SQL
	}
	return out
}

// CloseCalls reports how many times Close was called.
func (r *RecordingExecutor) CloseCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeCalls
}

// Reset clears recorded statements, queued results and the sequence.
//
// Used for test reuse. After Reset(), the next statement gets Seq 1.
func (r *RecordingExecutor) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq = 0
	r.statements = nil
	r.results = nil
	r.failNext = nil
}
