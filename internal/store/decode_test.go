package store

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ezql/internal/ir"
)

func TestDecodeCell(t *testing.T) {
	id := uuid.MustParse("0190d0a4-8c3e-7b1a-9f00-000000000001")

	tests := []struct {
		name     string
		cell     any
		typeName string
		want     ir.Value
	}{
		{"null", nil, "INTEGER", nil},
		{"int64", int64(7), "INTEGER", ir.Integer(7)},
		{"int64 untyped expression", int64(3), "", ir.Integer(3)},
		{"int64 boolean column", int64(1), "BOOLEAN", ir.Boolean(true)},
		{"bool", false, "BOOL", ir.Boolean(false)},
		{"string varchar", "abc", "VARCHAR(255)", ir.VarChar("abc")},
		{"string text", "abc", "TEXT", ir.Text("abc")},
		{"mysql text protocol int", []byte("42"), "INT", ir.Integer(42)},
		{"mysql tinyint bool", []byte("1"), "TINYINT", ir.Boolean(true)},
		{"postgres bool text", []byte("f"), "bool", ir.Boolean(false)},
		{"postgres uuid", []byte(id.String()), "UUID", ir.UUID(id)},
		{"bytes varchar", []byte("x"), "VARCHAR", ir.VarChar("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeCell(tt.cell, tt.typeName)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeCell_Errors(t *testing.T) {
	tests := []struct {
		name     string
		cell     any
		typeName string
	}{
		{"out of range", int64(math.MaxInt32) + 1, "INTEGER"},
		{"float", 1.5, "REAL"},
		{"bad integer text", []byte("4x"), "INT"},
		{"bad boolean text", []byte("maybe"), "BOOLEAN"},
		{"bad uuid", []byte("nope"), "UUID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeCell(tt.cell, tt.typeName)
			require.Error(t, err)
			assert.True(t, ir.IsConversion(err))
		})
	}
}
