package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ezql/internal/ir"
	"github.com/roach88/ezql/internal/model"
	"github.com/roach88/ezql/internal/queryir"
	"github.com/roach88/ezql/internal/querysql"
	"github.com/roach88/ezql/internal/store"
	"github.com/roach88/ezql/internal/testutil"
)

type user struct {
	ID       *int32
	Name     string
	IsActive *bool
}

func (user) Table() ir.Table {
	return usersTable()
}

func (u user) ColumnValues() ir.Row {
	return ir.Row{ir.Option(u.ID), ir.ValueOf(u.Name), ir.Option(u.IsActive)}
}

func (u *user) FromColumnValues(row ir.Row) error {
	var err error
	if u.ID, err = model.Field[int32](row, 0); err != nil {
		return err
	}
	if u.Name, err = model.Required[string](row, 1); err != nil {
		return err
	}
	if u.IsActive, err = model.Field[bool](row, 2); err != nil {
		return err
	}
	return nil
}

// shortUser claims the users table but only produces two slots.
type shortUser struct{ Name string }

func (shortUser) Table() ir.Table                { return usersTable() }
func (u shortUser) ColumnValues() ir.Row         { return ir.Row{nil, ir.ValueOf(u.Name)} }
func (*shortUser) FromColumnValues(ir.Row) error { return nil }

func ptr[T any](v T) *T { return &v }

func TestModelBackend_DerivesTable(t *testing.T) {
	users := NewModelBackend[user](New(querysql.NewSQLite(), testutil.NewRecordingExecutor()))
	assert.Equal(t, usersTable(), users.Table())
}

func TestModelBackend_InsertEncodesRecords(t *testing.T) {
	ctx := context.Background()
	ex := testutil.NewRecordingExecutor()
	users := NewModelBackend[user](New(querysql.NewSQLite(), ex))

	require.NoError(t, users.Insert(ctx,
		&user{Name: "John", IsActive: ptr(true)},
		&user{ID: ptr(int32(9)), Name: "Jack"},
	))

	stmts := ex.Statements()
	require.Len(t, stmts, 1)
	assert.Equal(t, "INSERT INTO users (name, is_active) VALUES (?, ?), (?, FALSE)", stmts[0].SQL)
	assert.Equal(t, []ir.Value{ir.VarChar("John"), ir.Boolean(true), ir.VarChar("Jack")}, stmts[0].Params)
}

func TestModelBackend_InsertNilRecord(t *testing.T) {
	ex := testutil.NewRecordingExecutor()
	users := NewModelBackend[user](New(querysql.NewSQLite(), ex))

	err := users.Insert(context.Background(), &user{Name: "John"}, nil)
	require.Error(t, err)
	assert.True(t, ir.IsMalformed(err))
	assert.Contains(t, err.Error(), "record 1 is nil")
	assert.Empty(t, ex.Statements())
}

func TestModelBackend_InsertArityMismatch(t *testing.T) {
	ex := testutil.NewRecordingExecutor()
	short := NewModelBackend[shortUser](New(querysql.NewSQLite(), ex))

	err := short.Insert(context.Background(), &shortUser{Name: "John"})
	require.Error(t, err)
	assert.True(t, ir.IsConversion(err))
	assert.Empty(t, ex.Statements())
}

func TestModelBackend_SelectDecodes(t *testing.T) {
	ctx := context.Background()
	ex := testutil.NewRecordingExecutor()
	users := NewModelBackend[user](New(querysql.NewSQLite(), ex))

	ex.QueueRows(
		ir.Row{ir.Integer(1), ir.VarChar("John"), ir.Integer(1)},
		ir.Row{ir.Integer(2), ir.VarChar("Jane"), nil},
	)
	found, err := users.Select(ctx, queryir.SelectQueryParams{})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, user{ID: ptr(int32(1)), Name: "John", IsActive: ptr(true)}, found[0])
	assert.Equal(t, user{ID: ptr(int32(2)), Name: "Jane"}, found[1])
}

func TestModelBackend_SelectConversionFailure(t *testing.T) {
	ctx := context.Background()
	ex := testutil.NewRecordingExecutor()
	users := NewModelBackend[user](New(querysql.NewSQLite(), ex))

	// name is required but was not projected
	ex.QueueRows(ir.Row{ir.Integer(1)})
	_, err := users.Select(ctx, queryir.SelectQueryParams{Columns: []string{"id"}})
	require.Error(t, err)
	assert.True(t, ir.IsConversion(err))

	ex.QueueRows(ir.Row{ir.Boolean(true), ir.VarChar("John"), nil})
	_, err = users.Select(ctx, queryir.SelectQueryParams{})
	assert.True(t, ir.IsConversion(err))
}

func TestModelBackend_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	st, err := store.OpenMemory()
	require.NoError(t, err)
	users := NewModelBackend[user](New(querysql.NewSQLite(), st))
	t.Cleanup(func() { _ = users.Close() })

	require.NoError(t, users.CreateTable(ctx, true))
	require.NoError(t, users.Insert(ctx,
		&user{Name: "John", IsActive: ptr(true)},
		&user{Name: "Jane", IsActive: ptr(false)},
		&user{Name: "Jack"},
	))

	all, err := users.Select(ctx, queryir.SelectQueryParams{OrderBy: queryir.Ascending("id")})
	require.NoError(t, err)
	assert.Equal(t, []user{
		{ID: ptr(int32(1)), Name: "John", IsActive: ptr(true)},
		{ID: ptr(int32(2)), Name: "Jane", IsActive: ptr(false)},
		{ID: ptr(int32(3)), Name: "Jack", IsActive: ptr(false)},
	}, all)

	active, err := users.Select(ctx, queryir.SelectQueryParams{
		Columns: []string{"name"},
		Where:   queryir.Eq{Column: "is_active", Value: ir.Boolean(true)},
	})
	require.NoError(t, err)
	assert.Equal(t, []user{{Name: "John"}}, active)

	require.NoError(t, users.Update(ctx, queryir.UpdateQueryParams{
		Set:   []queryir.Assignment{queryir.Set("is_active", true)},
		Where: queryir.In{Column: "name", Values: []ir.Value{ir.VarChar("Jane"), ir.VarChar("Jack")}},
	}))
	require.NoError(t, users.Delete(ctx, queryir.SelectQueryParams{
		Where: queryir.Eq{Column: "name", Value: ir.VarChar("John")},
	}))

	rest, err := users.Select(ctx, queryir.SelectQueryParams{
		Where:   queryir.Eq{Column: "is_active", Value: ir.Boolean(true)},
		OrderBy: queryir.Descending("name"),
	})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "Jane", rest[0].Name)
	assert.Equal(t, "Jack", rest[1].Name)

	require.NoError(t, users.DropTable(ctx, true))
}
