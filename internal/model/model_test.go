package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ezql/internal/ir"
)

type user struct {
	ID       *int32
	Name     string
	IsActive *bool
}

func (user) Table() ir.Table {
	return ir.Table{
		Name: "users",
		Columns: []ir.Column{
			{Name: "id", Type: ir.IntegerType{}, Properties: []ir.ColumnProperty{ir.PrimaryKey{}}},
			{Name: "name", Type: ir.VarCharType{Length: 255}, Properties: []ir.ColumnProperty{ir.NotNull{}}},
			{Name: "is_active", Type: ir.BooleanType{}, Properties: []ir.ColumnProperty{ir.DefaultOf(false)}},
		},
	}
}

func (u user) ColumnValues() ir.Row {
	return ir.Row{ir.Option(u.ID), ir.ValueOf(u.Name), ir.Option(u.IsActive)}
}

func (u *user) FromColumnValues(row ir.Row) error {
	var err error
	if u.ID, err = Field[int32](row, 0); err != nil {
		return err
	}
	if u.Name, err = Required[string](row, 1); err != nil {
		return err
	}
	if u.IsActive, err = Field[bool](row, 2); err != nil {
		return err
	}
	return nil
}

func TestTableOf(t *testing.T) {
	table := TableOf[user]()
	assert.Equal(t, "users", table.Name)
	assert.Equal(t, []string{"id", "name", "is_active"}, table.ColumnNames())
}

func TestEncode(t *testing.T) {
	active := true
	row, err := Encode(&user{Name: "John", IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, ir.Row{nil, ir.VarChar("John"), ir.Boolean(true)}, row)
}

func TestDecode(t *testing.T) {
	u, err := Decode[user](ir.Row{ir.Integer(1), ir.VarChar("Jane"), nil})
	require.NoError(t, err)
	require.NotNil(t, u.ID)
	assert.Equal(t, int32(1), *u.ID)
	assert.Equal(t, "Jane", u.Name)
	assert.Nil(t, u.IsActive)
}

func TestDecode_IntegerFlagWidensToBool(t *testing.T) {
	// Engines without a native boolean return flags as integers
	u, err := Decode[user](ir.Row{ir.Integer(2), ir.VarChar("Jack"), ir.Integer(1)})
	require.NoError(t, err)
	require.NotNil(t, u.IsActive)
	assert.True(t, *u.IsActive)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		row     ir.Row
		wantMsg string
	}{
		{"short row", ir.Row{ir.Integer(1), ir.VarChar("x")}, "has 3 columns, row has 2 values"},
		{"absent required", ir.Row{ir.Integer(1), nil, nil}, "position 1 is absent"},
		{"wrong variant", ir.Row{ir.VarChar("1"), ir.VarChar("x"), nil}, "cannot convert"},
		{"bool into int", ir.Row{ir.Boolean(true), ir.VarChar("x"), nil}, "cannot convert"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode[user](tt.row)
			require.Error(t, err)
			assert.True(t, ir.IsConversion(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestField_MissingPosition(t *testing.T) {
	_, err := Field[int32](ir.Row{}, 0)
	assert.True(t, ir.IsConversion(err))

	_, err = Required[uuid.UUID](ir.Row{ir.Integer(1)}, -1)
	assert.True(t, ir.IsConversion(err))
}

func TestCheckArity(t *testing.T) {
	table := user{}.Table()
	assert.NoError(t, CheckArity(table, ir.Row{nil, nil, nil}))
	assert.True(t, ir.IsConversion(CheckArity(table, ir.Row{nil})))
}
