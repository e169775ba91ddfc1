package catalog

import (
	"bytes"
	"encoding/gob"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrTableExists is returned by AddTable for a duplicate table name.
var ErrTableExists = errors.New("catalog: table already exists")

// ErrSchemaFull is returned by AddTable once MaxTables is reached.
var ErrSchemaFull = errors.New("catalog: schema registry full")

// ErrUnknownTable is returned by GetTable for a name never added.
var ErrUnknownTable = errors.New("catalog: unknown table")

// TableSchema is the column list and primary key position recorded
// for one CREATE TABLE.
type TableSchema struct {
	Name            string
	Columns         []ColumnDef
	PrimaryKeyIndex int
}

// Schema is the in-memory registry of table schemas, persisted to a
// sidecar file. It is process-wide state owned by the REPL's context,
// not a global.
type Schema struct {
	tables []TableSchema
	byName map[string]int
	maxTables int
	logger    *zap.Logger
}

// NewSchema returns an empty registry bounded at opts.MaxTables.
func NewSchema(opts Options, logger *zap.Logger) *Schema {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Schema{byName: make(map[string]int), maxTables: opts.MaxTables, logger: logger}
}

// AddTable records columns verbatim under name, refusing duplicates
// and overflow. The column flagged PrimaryKey (there must be exactly
// one, enforced by the caller/parser) determines PrimaryKeyIndex.
func (s *Schema) AddTable(name string, columns []ColumnDef) error {
	if _, ok := s.byName[name]; ok {
		return ErrTableExists
	}
	if len(s.tables) >= s.maxTables {
		return ErrSchemaFull
	}
	pkIdx := 0
	for i, c := range columns {
		if c.PrimaryKey {
			pkIdx = i
			break
		}
	}
	s.tables = append(s.tables, TableSchema{Name: name, Columns: columns, PrimaryKeyIndex: pkIdx})
	s.byName[name] = len(s.tables) - 1
	return nil
}

// GetTable returns the schema recorded for name.
func (s *Schema) GetTable(name string) (TableSchema, error) {
	idx, ok := s.byName[name]
	if !ok {
		return TableSchema{}, ErrUnknownTable
	}
	return s.tables[idx], nil
}

// Tables returns every recorded schema, in registration order.
func (s *Schema) Tables() []TableSchema {
	out := make([]TableSchema, len(s.tables))
	copy(out, s.tables)
	return out
}

// Save writes the registry to <base>.schema via gob.
func (s *Schema) Save(basePath string) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s.tables); err != nil {
		return errors.Wrap(err, "catalog: encode schema")
	}
	if err := os.WriteFile(sidecarPath(basePath), buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "catalog: write schema sidecar")
	}
	return nil
}

// Load reads <base>.schema, tolerating an absent or truncated
// sidecar by returning an empty-but-valid registry.
func Load(basePath string, opts Options, logger *zap.Logger) (*Schema, error) {
	s := NewSchema(opts, logger)
	data, err := os.ReadFile(sidecarPath(basePath))
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Wrap(err, "catalog: read schema sidecar")
	}

	var tables []TableSchema
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&tables); err != nil {
		if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			s.logger.Warn("schema sidecar truncated, starting empty", zap.String("path", sidecarPath(basePath)))
			return s, nil
		}
		return nil, errors.Wrap(err, "catalog: decode schema sidecar")
	}
	for _, t := range tables {
		s.tables = append(s.tables, t)
		s.byName[t.Name] = len(s.tables) - 1
	}
	return s, nil
}

func sidecarPath(basePath string) string {
	return basePath + ".schema"
}
