// Package backend is the facade callers use to run schema and DML
// operations against a database.
//
// A Backend pairs a querysql.Dialect with an Executor. Every operation
// compiles first and only then executes; executor failures come back as
// EXEC_ERROR with the driver's error preserved for errors.Is/As.
//
// ModelBackend layers typed records on top: it derives the table from a
// model.Model implementation once and converts records to and from rows.
//
// Example:
//
//	st, _ := store.OpenMemory()
//	users := backend.NewModelBackend[User](backend.New(querysql.NewSQLite(), st))
//	defer users.Close()
//	_ = users.CreateTable(ctx, true)
//	_ = users.Insert(ctx, &User{Name: "John"})
//	found, _ := users.Select(ctx, queryir.SelectQueryParams{
//		Where: queryir.Eq{Column: "name", Value: ir.VarChar("John")},
//	})
package backend
