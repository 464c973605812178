// Package compiler turns schema source files into ir.Table values.
//
// Two front ends share one column model: CUE (CompileSource, CompileTable)
// and YAML (ParseYAML). LoadFile picks the front end by file extension and
// runs Validate over the result, which reports every problem with an
// E1xx code instead of stopping at the first.
package compiler
