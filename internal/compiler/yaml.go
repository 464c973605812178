package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ezql/internal/ir"
)

// schemaFile is the YAML form of a schema:
//
//	tables:
//	  - name: users
//	    columns:
//	      - {name: id, type: integer, primary_key: true}
//	      - {name: name, type: varchar, length: 255, not_null: true}
//	      - {name: is_active, type: boolean, default: false}
type schemaFile struct {
	Tables []tableSpec `yaml:"tables"`
}

type tableSpec struct {
	Name    string       `yaml:"name"`
	Columns []columnSpec `yaml:"columns"`
}

// ParseYAML parses a YAML schema document. Unknown keys are rejected.
func ParseYAML(src []byte) ([]ir.Table, error) {
	var doc schemaFile
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &CompileError{Field: "tables", Message: "empty schema document"}
		}
		return nil, fmt.Errorf("parsing YAML schema: %w", err)
	}
	if len(doc.Tables) == 0 {
		return nil, &CompileError{Field: "tables", Message: "no table definitions found"}
	}

	tables := make([]ir.Table, 0, len(doc.Tables))
	for i, ts := range doc.Tables {
		if len(ts.Columns) == 0 {
			return nil, &CompileError{
				Field:   fmt.Sprintf("tables[%d].columns", i),
				Message: "at least one column is required",
			}
		}
		table := ir.Table{Name: ts.Name}
		for j, cs := range ts.Columns {
			col, ferr := cs.build()
			if ferr != nil {
				return nil, &CompileError{
					Field:   fmt.Sprintf("tables[%d].columns[%d].%s", i, j, ferr.field),
					Message: ferr.message,
				}
			}
			table.Columns = append(table.Columns, col)
		}
		tables = append(tables, table)
	}
	return tables, nil
}
