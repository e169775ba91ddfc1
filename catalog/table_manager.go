package catalog

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"minidb/table"
)

// ErrTooManyOpenTables is returned by Open once MaxOpenTables is reached.
var ErrTooManyOpenTables = errors.New("catalog: too many open tables")

// TableManager maps table name to an open table.Table over a derived
// path "<base>.<name>", used by multi-table operations (JOIN).
// Open is idempotent: a table already open is returned as-is.
type TableManager struct {
	base    string
	opts    Options
	open    map[string]*table.Table
	logger  *zap.Logger
}

// NewTableManager returns a manager rooted at basePath (the database
// file path passed on the command line), bounded by opts.MaxOpenTables.
func NewTableManager(basePath string, opts Options, logger *zap.Logger) *TableManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TableManager{base: basePath, opts: opts, open: make(map[string]*table.Table), logger: logger}
}

// Open returns the table named name, opening it from "<base>.<name>"
// if not already open.
func (m *TableManager) Open(name string) (*table.Table, error) {
	if tb, ok := m.open[name]; ok {
		return tb, nil
	}
	if len(m.open) >= m.opts.MaxOpenTables {
		return nil, ErrTooManyOpenTables
	}
	path := fmt.Sprintf("%s.%s", m.base, name)
	tb, err := table.Open(path, name, m.logger)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog: open table %q", name)
	}
	m.open[name] = tb
	return tb, nil
}

// Get returns an already-open table, or nil if not open.
func (m *TableManager) Get(name string) (*table.Table, bool) {
	tb, ok := m.open[name]
	return tb, ok
}

// Names returns the names of currently open tables.
func (m *TableManager) Names() []string {
	names := make([]string, 0, len(m.open))
	for n := range m.open {
		names = append(names, n)
	}
	return names
}

// CloseAll checkpoints and closes every open table, collecting the
// first error encountered while still attempting to close the rest.
func (m *TableManager) CloseAll() error {
	var first error
	for name, tb := range m.open {
		if err := tb.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "catalog: close table %q", name)
		}
		delete(m.open, name)
	}
	return first
}
