package compiler

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "schema/users.cue", []byte(usersCUE), 0o644))
	require.NoError(t, afero.WriteFile(fs, "schema/users.yaml", []byte(usersYAML), 0o644))
	require.NoError(t, afero.WriteFile(fs, "schema/users.YML", []byte(usersYAML), 0o644))

	for _, path := range []string{"schema/users.cue", "schema/users.yaml", "schema/users.YML"} {
		t.Run(path, func(t *testing.T) {
			tables, err := LoadFile(fs, path)
			require.NoError(t, err)
			require.Len(t, tables, 1)
			assert.Equal(t, usersTable(), tables[0])
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "schema.json", []byte(`{}`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "dup.yaml", []byte(`
tables:
  - name: t
    columns: [{name: a, type: integer}]
  - name: t
    columns: [{name: a, type: integer}, {name: a, type: text}]
`), 0o644))

	_, err := LoadFile(fs, "missing.cue")
	assert.ErrorContains(t, err, "reading schema")

	_, err = LoadFile(fs, "schema.json")
	assert.ErrorContains(t, err, `unsupported schema format ".json"`)

	_, err = LoadFile(fs, "dup.yaml")
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, []string{ErrDuplicateTable, ErrDuplicateColumn}, codes(verrs))
}

func TestFindTable(t *testing.T) {
	tables, err := ParseYAML([]byte(usersYAML))
	require.NoError(t, err)

	users, err := FindTable(tables, "users")
	require.NoError(t, err)
	assert.Equal(t, "users", users.Name)

	_, err = FindTable(tables, "posts")
	assert.EqualError(t, err, `table "posts" not found (have: users)`)
}
