// Package harness runs scripted scenarios against a dialect and an executor.
//
// A scenario names a schema file and lists steps. Each step compiles to one
// statement, runs through a backend.Backend, and is checked against its
// expectation. The run produces a trace of compiled SQL, bound parameters
// and selected rows that can be compared with golden files.
//
// # Scenario Format
//
//	name: users_roundtrip
//	description: "Create, fill, query and drop the users table"
//	schema: ../schemas/users.cue
//	steps:
//	  - op: create_table
//	    table: users
//	    if_exists: true
//	  - op: insert
//	    table: users
//	    rows:
//	      - {name: John, is_active: true}
//	  - op: select
//	    table: users
//	    columns: [id, name]
//	    where: "is_active AND name LIKE 'J%'"
//	    order_by: -id
//	    limit: 4
//	    expect:
//	      rows:
//	        - {id: 1, name: John}
//	  - op: insert
//	    table: users
//	    rows: []
//	    expect:
//	      error: MALFORMED_QUERY_IR
//
// Where clauses use the filter syntax of package filter. Scalars in rows,
// set and expected rows are typed by their column.
//
// # Determinism
//
// Set assignments follow table column order and expected rows are matched
// in order, so a scenario yields the same trace on every run.
//
// # Usage
//
//	scenario, err := harness.LoadScenario(afero.NewOsFs(), "testdata/scenarios/users.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario, querysql.NewSQLite(), st)
//
// Plan compiles the same steps without executing them.
package harness
