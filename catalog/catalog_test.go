package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func usersColumns() []ColumnDef {
	return []ColumnDef{
		{Name: "id", Type: ColumnTypeInt, PrimaryKey: true},
		{Name: "username", Type: ColumnTypeVarchar, MaxLength: 32},
		{Name: "email", Type: ColumnTypeVarchar, MaxLength: 255},
	}
}

func TestSchemaAddAndGet(t *testing.T) {
	s := NewSchema(DefaultOptions(), nil)
	require.NoError(t, s.AddTable("users", usersColumns()))

	got, err := s.GetTable("users")
	require.NoError(t, err)
	require.Equal(t, "users", got.Name)
	require.Equal(t, 0, got.PrimaryKeyIndex)
	require.Len(t, got.Columns, 3)
}

func TestSchemaRejectsDuplicateName(t *testing.T) {
	s := NewSchema(DefaultOptions(), nil)
	require.NoError(t, s.AddTable("users", usersColumns()))
	require.ErrorIs(t, s.AddTable("users", usersColumns()), ErrTableExists)
}

func TestSchemaRejectsOverflow(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxTables = 1
	s := NewSchema(opts, nil)
	require.NoError(t, s.AddTable("a", usersColumns()))
	require.ErrorIs(t, s.AddTable("b", usersColumns()), ErrSchemaFull)
}

func TestSchemaGetUnknownTable(t *testing.T) {
	s := NewSchema(DefaultOptions(), nil)
	_, err := s.GetTable("ghost")
	require.ErrorIs(t, err, ErrUnknownTable)
}

func TestSchemaSaveLoadRoundTrip(t *testing.T) {
	base := filepath.Join(t.TempDir(), "mydb")
	s := NewSchema(DefaultOptions(), nil)
	require.NoError(t, s.AddTable("users", usersColumns()))
	require.NoError(t, s.Save(base))

	loaded, err := Load(base, DefaultOptions(), nil)
	require.NoError(t, err)
	got, err := loaded.GetTable("users")
	require.NoError(t, err)
	require.Equal(t, "users", got.Name)
	require.Len(t, got.Columns, 3)
}

func TestSchemaLoadMissingSidecarIsEmpty(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nodb")
	s, err := Load(base, DefaultOptions(), nil)
	require.NoError(t, err)
	require.Empty(t, s.Tables())
}

func TestTableManagerOpenIsIdempotent(t *testing.T) {
	base := filepath.Join(t.TempDir(), "mydb")
	tm := NewTableManager(base, DefaultOptions(), nil)
	t.Cleanup(func() { tm.CloseAll() })

	t1, err := tm.Open("users")
	require.NoError(t, err)
	t2, err := tm.Open("users")
	require.NoError(t, err)
	require.Same(t, t1, t2)
}

func TestTableManagerRejectsOverflow(t *testing.T) {
	base := filepath.Join(t.TempDir(), "mydb")
	opts := DefaultOptions()
	opts.MaxOpenTables = 1
	tm := NewTableManager(base, opts, nil)
	t.Cleanup(func() { tm.CloseAll() })

	_, err := tm.Open("a")
	require.NoError(t, err)
	_, err = tm.Open("b")
	require.ErrorIs(t, err, ErrTooManyOpenTables)
}

func TestTableManagerCloseAll(t *testing.T) {
	base := filepath.Join(t.TempDir(), "mydb")
	tm := NewTableManager(base, DefaultOptions(), nil)
	_, err := tm.Open("users")
	require.NoError(t, err)
	require.NoError(t, tm.CloseAll())
	require.Empty(t, tm.Names())
}
