package index

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"minidb/table"
)

// indexableColumns lists the only columns the fixed three-column row
// layout supports secondary indexes on.
var indexableColumns = map[string]bool{"username": true, "email": true}

// Manager owns the set of secondary indexes, keyed by (table, column).
type Manager struct {
	indexes   []*SecondaryIndex
	maxIndexes int
	logger    *zap.Logger
}

// NewManager returns an empty manager bounded at maxIndexes.
func NewManager(maxIndexes int, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{maxIndexes: maxIndexes, logger: logger}
}

// Create adds a new, empty index on (tableName, column). Refuses a
// duplicate (table, column) pair, capacity overflow, and a column
// other than username/email.
func (m *Manager) Create(tableName, column string) (*SecondaryIndex, error) {
	if !indexableColumns[column] {
		return nil, errors.Wrapf(ErrNotIndexable, "%s.%s", tableName, column)
	}
	if _, ok := m.find(tableName, column); ok {
		return nil, errors.Wrapf(ErrIndexExists, "%s.%s", tableName, column)
	}
	if len(m.indexes) >= m.maxIndexes {
		return nil, ErrManagerFull
	}
	idx := newSecondaryIndex(tableName, column)
	m.indexes = append(m.indexes, idx)
	m.logger.Info("created secondary index", zap.String("table", tableName), zap.String("column", column))
	return idx, nil
}

// Get returns the index on (tableName, column), if one exists.
func (m *Manager) Get(tableName, column string) (*SecondaryIndex, bool) {
	return m.find(tableName, column)
}

// List returns every index currently registered.
func (m *Manager) List() []*SecondaryIndex {
	out := make([]*SecondaryIndex, len(m.indexes))
	copy(out, m.indexes)
	return out
}

func (m *Manager) find(tableName, column string) (*SecondaryIndex, bool) {
	for _, idx := range m.indexes {
		if idx.Table == tableName && idx.Column == column {
			return idx, true
		}
	}
	return nil, false
}

// BuildFromTable rebuilds idx by scanning tbl's primary store in key
// order and inserting (row.column_value, row.id) for every row. Only
// username and email are recognized; other columns are a no-op, since
// Create already refuses to register them.
func BuildFromTable(idx *SecondaryIndex, tbl *table.Table) (int, error) {
	c, err := tbl.Start()
	if err != nil {
		return 0, errors.Wrap(err, "index: build from table: start cursor")
	}
	n := 0
	for c.Valid() {
		row, err := c.Row()
		if err != nil {
			return n, errors.Wrap(err, "index: build from table: read row")
		}
		switch idx.Column {
		case "username":
			idx.Insert(row.Username, row.ID)
		case "email":
			idx.Insert(row.Email, row.ID)
		}
		n++
		if err := c.Advance(); err != nil {
			return n, errors.Wrap(err, "index: build from table: advance cursor")
		}
	}
	return n, nil
}
