package compiler

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/roach88/ezql/internal/ir"
)

// LoadFile reads a schema file from fs and compiles its tables.
//
// The format is chosen by extension: .cue for CUE, .yaml/.yml for YAML.
// Compiled tables are checked with Validate; every problem is returned
// together as ValidationErrors.
func LoadFile(fs afero.Fs, path string) ([]ir.Table, error) {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}

	var tables []ir.Table
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		tables, err = CompileSource(path, src)
	case ".yaml", ".yml":
		tables, err = ParseYAML(src)
	default:
		return nil, fmt.Errorf("unsupported schema format %q (want .cue, .yaml or .yml)", ext)
	}
	if err != nil {
		return nil, err
	}

	if errs := Validate(tables); len(errs) > 0 {
		return nil, errs
	}
	return tables, nil
}

// FindTable returns the table with the given name.
func FindTable(tables []ir.Table, name string) (ir.Table, error) {
	for _, t := range tables {
		if t.Name == name {
			return t, nil
		}
	}
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return ir.Table{}, fmt.Errorf("table %q not found (have: %s)", name, strings.Join(names, ", "))
}
