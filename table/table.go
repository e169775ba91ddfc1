// Package table binds a Pager, a WAL, and a B+tree root into the
// primary-key-ordered row store the rest of the engine queries.
package table

import (
	"fmt"

	"go.uber.org/zap"

	"minidb/pager"
	"minidb/wal"
)

// Table owns a Pager, a WAL, and the tree rooted at page 0 of that
// pager, plus the display name it's known by in the schema registry.
type Table struct {
	Name   string
	pager  *pager.Pager
	wal    *wal.WAL
	tree   *BTree
	logger *zap.Logger
}

// Open opens (or creates) path, replays any WAL frames found, and
// initializes an empty root leaf if the file is new.
func Open(path, name string, logger *zap.Logger) (*Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p, err := pager.Open(path, logger)
	if err != nil {
		return nil, fmt.Errorf("table: open %q: %w", name, err)
	}
	w, err := wal.Open(path, logger)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("table: open wal for %q: %w", name, err)
	}
	// Recover is always safe to call: with no frames pending it just
	// performs a harmless checkpoint.
	if _, err := w.Recover(p); err != nil {
		return nil, fmt.Errorf("table: recover %q: %w", name, err)
	}

	tree, err := OpenBTree(p, logger)
	if err != nil {
		return nil, fmt.Errorf("table: open btree for %q: %w", name, err)
	}

	return &Table{Name: name, pager: p, wal: w, tree: tree, logger: logger}, nil
}

// Close checkpoints the WAL, flushes all pages, and closes the file.
func (t *Table) Close() error {
	if err := t.wal.Checkpoint(t.pager); err != nil {
		return fmt.Errorf("table: checkpoint %q: %w", t.Name, err)
	}
	if err := t.wal.Close(); err != nil {
		return fmt.Errorf("table: close wal %q: %w", t.Name, err)
	}
	if err := t.pager.Close(); err != nil {
		return fmt.Errorf("table: close pager %q: %w", t.Name, err)
	}
	return nil
}

// Checkpoint forces an immediate WAL checkpoint without closing.
func (t *Table) Checkpoint() error {
	return t.wal.Checkpoint(t.pager)
}

// BeginTransaction marks a transaction boundary in the WAL. Diagnostic
// only: every mutation is already logged and fsynced independently.
func (t *Table) BeginTransaction() {
	t.wal.BeginTransaction()
}

// CommitTransaction fsyncs the WAL.
func (t *Table) CommitTransaction() error {
	return t.wal.CommitTransaction()
}

func (t *Table) logFrames(pages []uint32) error {
	for _, pn := range pages {
		pg, err := t.pager.GetPage(pn)
		if err != nil {
			return fmt.Errorf("table: logFrames: get page %d: %w", pn, err)
		}
		if err := t.wal.WriteFrame(pn, &pg.Data, uint32(len(t.pager.Pages))); err != nil {
			return fmt.Errorf("table: logFrames: write frame for page %d: %w", pn, err)
		}
	}
	return nil
}

// Find returns a cursor at the first row with id >= key.
func (t *Table) Find(key uint32) (*Cursor, error) {
	return t.tree.Find(key)
}

// Start returns a cursor at the first row in id order.
func (t *Table) Start() (*Cursor, error) {
	return t.tree.Start()
}

// InsertRow rejects duplicate ids, otherwise inserts the row and logs
// a WAL frame for every page the insert touched (the leaf, and any
// sibling/root pages produced by a split).
func (t *Table) InsertRow(row Row) error {
	c, err := t.Find(row.ID)
	if err != nil {
		return fmt.Errorf("table: InsertRow: probe: %w", err)
	}
	if c.Valid() {
		if k, err := c.Key(); err == nil && k == row.ID {
			return ErrDuplicateKey
		}
	}

	touched, err := t.tree.Insert(row.ID, row)
	if err != nil {
		return fmt.Errorf("table: InsertRow: %w", err)
	}
	return t.logFrames(touched)
}

// DeleteRow removes the row with the given id.
func (t *Table) DeleteRow(id uint32) (bool, error) {
	found, touched, err := t.tree.Delete(id)
	if err != nil {
		return false, fmt.Errorf("table: DeleteRow: %w", err)
	}
	if !found {
		return false, nil
	}
	if err := t.logFrames(touched); err != nil {
		return true, err
	}
	return true, nil
}

// UpdateRow rewrites the row with the given id in place. Returns
// ErrNotFound if no such row exists.
func (t *Table) UpdateRow(row Row) error {
	c, err := t.Find(row.ID)
	if err != nil {
		return fmt.Errorf("table: UpdateRow: probe: %w", err)
	}
	if !c.Valid() {
		return ErrNotFound
	}
	k, err := c.Key()
	if err != nil {
		return err
	}
	if k != row.ID {
		return ErrNotFound
	}

	pg, err := t.pager.GetPage(c.leafPage)
	if err != nil {
		return err
	}
	leaf, err := loadLeafNode(c.leafPage, pg)
	if err != nil {
		return err
	}
	leaf.cells[c.idx].Value = row
	if err := t.tree.writeLeaf(leaf); err != nil {
		return err
	}
	return t.logFrames([]uint32{leaf.Page()})
}

// CountRows performs a full leaf-chain scan to count rows.
func (t *Table) CountRows() (int, error) {
	c, err := t.Start()
	if err != nil {
		return 0, err
	}
	n := 0
	for c.Valid() {
		n++
		if err := c.Advance(); err != nil {
			return n, err
		}
	}
	return n, nil
}
