package store

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/ezql/internal/ir"
)

// decodeCell converts one scanned driver value into an ir.Value.
//
// Drivers disagree on representation: go-sqlite3 returns int64, string and
// bool (for BOOLEAN declared columns); lib/pq returns []byte for UUID;
// go-sql-driver/mysql returns []byte for every column on the text
// protocol. The declared column type name resolves the ambiguity.
func decodeCell(cell any, typeName string) (ir.Value, error) {
	typeName = strings.ToUpper(typeName)

	switch v := cell.(type) {
	case nil:
		return nil, nil
	case int64:
		if isBoolType(typeName) {
			return ir.Boolean(v != 0), nil
		}
		return toInteger(v)
	case bool:
		return ir.Boolean(v), nil
	case []byte:
		return decodeText(string(v), typeName)
	case string:
		return decodeText(v, typeName)
	default:
		return nil, ir.NewConversionError("unsupported driver value %T for column type %q", cell, typeName)
	}
}

func decodeText(s, typeName string) (ir.Value, error) {
	switch {
	case isIntegerType(typeName):
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, ir.NewConversionError("column type %s: %q is not an integer", typeName, s)
		}
		return toInteger(n)
	case isBoolType(typeName):
		switch strings.ToLower(s) {
		case "1", "t", "true":
			return ir.Boolean(true), nil
		case "0", "f", "false":
			return ir.Boolean(false), nil
		}
		return nil, ir.NewConversionError("column type %s: %q is not a boolean", typeName, s)
	case typeName == "UUID":
		u, err := uuid.Parse(s)
		if err != nil {
			return nil, ir.NewConversionError("column type UUID: %v", err)
		}
		return ir.UUID(u), nil
	case typeName == "TEXT":
		return ir.Text(s), nil
	default:
		return ir.VarChar(s), nil
	}
}

func toInteger(n int64) (ir.Value, error) {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, ir.NewConversionError("integer %d out of 32-bit range", n)
	}
	return ir.Integer(int32(n)), nil
}

func isIntegerType(name string) bool {
	switch name {
	case "INT", "INTEGER", "INT4", "INT8", "BIGINT", "SMALLINT", "MEDIUMINT", "SERIAL":
		return true
	}
	return false
}

func isBoolType(name string) bool {
	return name == "BOOLEAN" || name == "BOOL" || name == "TINYINT"
}
