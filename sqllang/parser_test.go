package sqllang

import (
	"testing"

	"github.com/stretchr/testify/require"

	"minidb/catalog"
)

func TestParseInsert(t *testing.T) {
	stmt, err := Parse("insert 1 alice alice@x.com")
	require.NoError(t, err)
	require.Equal(t, StmtInsert, stmt.Kind)
	require.Equal(t, uint32(1), stmt.InsertID)
	require.Equal(t, "alice", stmt.InsertUsername)
	require.Equal(t, "alice@x.com", stmt.InsertEmail)
}

func TestParseSelectStarWithWhere(t *testing.T) {
	stmt, err := Parse("SELECT * WHERE id = 5")
	require.NoError(t, err)
	require.Equal(t, StmtSelect, stmt.Kind)
	require.True(t, stmt.HasWhere)
	require.Equal(t, "id", stmt.WhereColumn)
	require.Equal(t, "5", stmt.WhereValue)
}

func TestParseSelectOrderByAndLimit(t *testing.T) {
	stmt, err := Parse("SELECT * ORDER BY username DESC LIMIT 10")
	require.NoError(t, err)
	require.True(t, stmt.HasOrderBy)
	require.Equal(t, "username", stmt.OrderByColumn)
	require.False(t, stmt.OrderAscending)
	require.True(t, stmt.HasLimit)
	require.Equal(t, uint32(10), stmt.Limit)
}

func TestParseSelectAggregate(t *testing.T) {
	stmt, err := Parse("SELECT COUNT(*)")
	require.NoError(t, err)
	require.True(t, stmt.HasAggregation)
	require.Equal(t, AggCount, stmt.AggKind)
	require.Equal(t, "*", stmt.AggColumn)
}

func TestParseSelectJoin(t *testing.T) {
	stmt, err := Parse("SELECT * FROM users JOIN orders ON users.id = orders.user_id")
	require.NoError(t, err)
	require.True(t, stmt.HasJoin)
	require.Equal(t, "users", stmt.Join.LeftTable)
	require.Equal(t, "id", stmt.Join.LeftColumn)
	require.Equal(t, "orders", stmt.Join.RightTable)
	require.Equal(t, "user_id", stmt.Join.RightColumn)
}

func TestParseUpdate(t *testing.T) {
	stmt, err := Parse("UPDATE SET email = new@x.com WHERE id = 3")
	require.NoError(t, err)
	require.Equal(t, StmtUpdate, stmt.Kind)
	require.Equal(t, []Assignment{{Column: "email", Value: "new@x.com"}}, stmt.Assignments)
	require.True(t, stmt.HasWhere)
	require.Equal(t, "3", stmt.WhereValue)
}

func TestParseDelete(t *testing.T) {
	stmt, err := Parse("DELETE WHERE id = 7")
	require.NoError(t, err)
	require.Equal(t, StmtDelete, stmt.Kind)
	require.True(t, stmt.HasWhere)
}

func TestParseExplainPrefix(t *testing.T) {
	stmt, err := Parse("EXPLAIN SELECT * WHERE id = 1")
	require.NoError(t, err)
	require.True(t, stmt.IsExplain)
	require.Equal(t, StmtSelect, stmt.Kind)
}

func TestParseCreateTable(t *testing.T) {
	stmt, err := Parse("CREATE TABLE users (id INT PRIMARY KEY, username VARCHAR(32), email VARCHAR(255))")
	require.NoError(t, err)
	require.Equal(t, StmtCreateTable, stmt.Kind)
	require.Equal(t, "users", stmt.TableName)
	require.Equal(t, []catalog.ColumnDef{
		{Name: "id", Type: catalog.ColumnTypeInt, PrimaryKey: true},
		{Name: "username", Type: catalog.ColumnTypeVarchar, MaxLength: 32},
		{Name: "email", Type: catalog.ColumnTypeVarchar, MaxLength: 255},
	}, stmt.Columns)
}

func TestParseCreateIndex(t *testing.T) {
	stmt, err := Parse("CREATE INDEX ON users(username)")
	require.NoError(t, err)
	require.Equal(t, StmtCreateIndex, stmt.Kind)
	require.Equal(t, "users", stmt.IndexTable)
	require.Equal(t, "username", stmt.IndexColumn)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("FROBNICATE everything")
	require.ErrorIs(t, err, ErrSyntax)
}

func TestParseRejectsTrailingTokens(t *testing.T) {
	_, err := Parse("SELECT * WHERE id = 1 GARBAGE")
	require.ErrorIs(t, err, ErrSyntax)
}

func TestParseCaseInsensitiveKeywords(t *testing.T) {
	stmt, err := Parse("select * where id = 1")
	require.NoError(t, err)
	require.Equal(t, StmtSelect, stmt.Kind)
}
