// Package repl ties the catalog, secondary-index manager, planner,
// and statistics together into the explicit, scoped state object the
// executor and meta-commands operate on, in place of process globals.
package repl

import (
	"fmt"

	"go.uber.org/zap"

	"minidb/catalog"
	"minidb/index"
	"minidb/planner"
	"minidb/table"
)

// primaryTableName is the implicit table INSERT/SELECT/UPDATE/DELETE
// operate on when no FROM clause names another one.
const primaryTableName = "users"

// Context owns every piece of process-wide state for one open
// database: the primary table, any additional tables opened for
// JOINs, the schema registry, the secondary-index manager, and query
// statistics. It is created once at startup and torn down on .exit.
type Context struct {
	Path    string
	Primary *table.Table
	Schema  *catalog.Schema
	Tables  *catalog.TableManager
	Indexes *index.Manager
	Stats   *planner.Stats
	Logger  *zap.Logger
}

// NewContext opens the database at path: the primary table file
// itself, its schema sidecar, and fresh table-manager/index-manager
// instances (secondary indexes are never persisted; see index.Manager).
func NewContext(path string, opts catalog.Options, logger *zap.Logger) (*Context, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	primary, err := table.Open(path, primaryTableName, logger)
	if err != nil {
		return nil, fmt.Errorf("repl: open primary table: %w", err)
	}

	schema, err := catalog.Load(path, opts, logger)
	if err != nil {
		primary.Close()
		return nil, fmt.Errorf("repl: load schema: %w", err)
	}

	return &Context{
		Path:    path,
		Primary: primary,
		Schema:  schema,
		Tables:  catalog.NewTableManager(path, opts, logger),
		Indexes: index.NewManager(opts.MaxIndexes, logger),
		Stats:   planner.NewStats(logger),
		Logger:  logger,
	}, nil
}

// Close saves the schema, checkpoints and closes every open table.
// Errors are collected but every close is still attempted.
func (c *Context) Close() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	record(c.Schema.Save(c.Path))
	record(c.Primary.Close())
	record(c.Tables.CloseAll())
	return firstErr
}

// tableFor resolves a SQL-visible table name to an open *table.Table:
// the implicit primary table for "" or "users", otherwise a table
// opened on demand through the Table Manager.
func (c *Context) tableFor(name string) (*table.Table, error) {
	if name == "" || name == primaryTableName {
		return c.Primary, nil
	}
	return c.Tables.Open(name)
}
