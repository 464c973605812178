package harness

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ezql/internal/compiler"
	"github.com/roach88/ezql/internal/ir"
)

// Scenario is a scripted sequence of schema and DML steps against one
// schema, with expectations on each step's outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the path of a .cue or .yaml schema file.
	// Relative paths are resolved against the scenario file's directory.
	Schema string `yaml:"schema"`

	// Steps run in order. The first unexpected failure stops the run.
	Steps []Step `yaml:"steps"`

	// Tables is the compiled schema, filled in by LoadScenario.
	Tables []ir.Table `yaml:"-"`
}

// Step is one operation against a table.
//
// Which fields apply depends on Op:
//   - create_table, drop_table: IfExists (IF NOT EXISTS / IF EXISTS)
//   - insert: Rows
//   - select: Columns, Where, OrderBy, Limit, Offset
//   - delete: Where
//   - update: Set, Where
type Step struct {
	Op    string `yaml:"op"`
	Table string `yaml:"table"`

	IfExists bool `yaml:"if_exists,omitempty"`

	// Rows map column names to scalars. Missing columns are absent slots.
	Rows []map[string]any `yaml:"rows,omitempty"`

	Columns []string `yaml:"columns,omitempty"`

	// Where uses the filter syntax, e.g. "name = 'John' AND NOT is_active".
	Where string `yaml:"where,omitempty"`

	// OrderBy is a column name, prefixed with '-' for descending.
	OrderBy string `yaml:"order_by,omitempty"`

	Limit  *int `yaml:"limit,omitempty"`
	Offset *int `yaml:"offset,omitempty"`

	// Set maps column names to new values; null sets NULL. Assignments are
	// applied in table column order.
	Set map[string]any `yaml:"set,omitempty"`

	// Expect is checked after the step runs. Without it the step must
	// succeed.
	Expect *Expectation `yaml:"expect,omitempty"`
}

// Expectation describes a step's outcome.
type Expectation struct {
	// Error is an error code (e.g. MALFORMED_QUERY_IR) the step must fail with.
	Error string `yaml:"error,omitempty"`

	// Rows are the exact rows a select must return, in order. Each map is
	// a subset match: only the named columns are compared.
	Rows []map[string]any `yaml:"rows,omitempty"`

	// Count is the number of rows a select must return.
	Count *int `yaml:"count,omitempty"`
}

// Step operations.
const (
	OpCreateTable = "create_table"
	OpDropTable   = "drop_table"
	OpInsert      = "insert"
	OpSelect      = "select"
	OpDelete      = "delete"
	OpUpdate      = "update"
)

// LoadScenario reads and parses a scenario YAML file and compiles its
// schema. Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(fs afero.Fs, path string) (*Scenario, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "step:" vs "steps:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema == "" {
		return nil, fmt.Errorf("invalid scenario: schema is required")
	}
	schemaPath := scenario.Schema
	if !filepath.IsAbs(schemaPath) {
		schemaPath = filepath.Join(filepath.Dir(path), schemaPath)
	}
	scenario.Tables, err = compiler.LoadFile(fs, schemaPath)
	if err != nil {
		return nil, fmt.Errorf("loading schema %s: %w", scenario.Schema, err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and that every
// step names a known table and operation.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i], s.Tables); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its operation.
func validateStep(index int, st *Step, tables []ir.Table) error {
	if st.Op == "" {
		return fmt.Errorf("steps[%d]: op is required", index)
	}
	if st.Table == "" {
		return fmt.Errorf("steps[%d]: table is required", index)
	}
	if _, err := compiler.FindTable(tables, st.Table); err != nil {
		return fmt.Errorf("steps[%d]: %w", index, err)
	}

	expectsError := st.Expect != nil && st.Expect.Error != ""

	switch st.Op {
	case OpCreateTable, OpDropTable, OpDelete:
	case OpInsert:
		if st.Rows == nil && !expectsError {
			return fmt.Errorf("steps[%d]: rows is required for insert", index)
		}
	case OpSelect:
	case OpUpdate:
		if len(st.Set) == 0 && !expectsError {
			return fmt.Errorf("steps[%d]: set is required for update", index)
		}
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}

	if st.Expect != nil && st.Op != OpSelect && (st.Expect.Rows != nil || st.Expect.Count != nil) {
		return fmt.Errorf("steps[%d]: rows and count expectations only apply to select", index)
	}

	return nil
}
