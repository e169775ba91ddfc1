// Package catalog tracks table schemas and owns the open Table
// handles keyed by table name.
package catalog

// ColumnType names a column's declared SQL type.
type ColumnType int

const (
	ColumnTypeInt ColumnType = iota
	ColumnTypeVarchar
)

func (t ColumnType) String() string {
	switch t {
	case ColumnTypeInt:
		return "INT"
	case ColumnTypeVarchar:
		return "VARCHAR"
	default:
		return "UNKNOWN"
	}
}

// ColumnDef is pure metadata for CREATE TABLE display/validation; it
// has no bearing on physical row layout, which is fixed at three
// columns (id, username, email) regardless of what's declared here.
type ColumnDef struct {
	Name      string
	Type      ColumnType
	MaxLength int // VARCHAR(n); 0 for INT
	PrimaryKey bool
}
