package querysql

import (
	"strings"

	"github.com/roach88/ezql/internal/ir"
)

// Query is a compiled statement: SQL text plus positional parameters.
//
// The i-th element of Params binds the i-th placeholder in SQL, in text
// order. Params never contains a nil entry.
type Query struct {
	SQL    string
	Params []ir.Value
}

// Args converts Params to database/sql driver arguments.
func (q Query) Args() []any {
	args := make([]any, len(q.Params))
	for i, p := range q.Params {
		args[i] = p.Arg()
	}
	return args
}

// String returns the SQL text.
func (q Query) String() string {
	return q.SQL
}

// builder accumulates SQL text and bound parameters for one statement.
// Placeholders are numbered across the whole statement.
type builder struct {
	g      *grammar
	sb     strings.Builder
	params []ir.Value
}

func newBuilder(g *grammar) *builder {
	return &builder{g: g}
}

func (b *builder) write(parts ...string) {
	for _, p := range parts {
		b.sb.WriteString(p)
	}
}

// bind appends v to the parameter list and writes its placeholder.
func (b *builder) bind(v ir.Value) {
	b.params = append(b.params, v)
	b.sb.WriteString(b.g.placeholder(len(b.params)))
}

func (b *builder) query() Query {
	return Query{SQL: b.sb.String(), Params: b.params}
}
