// B+tree search, insert-with-split, and delete over pager pages. The
// root is permanently pinned at page 0: when it splits, the old
// root's page image is copied into a newly allocated page and page 0
// is rewritten in place as the new internal root.
package table

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"minidb/pager"
)

// ErrDuplicateKey is returned by Insert when the key already exists.
var ErrDuplicateKey = errors.New("table: duplicate key")

// ErrNotFound is returned by Table.UpdateRow when no row has the
// given id. Delete reports a missing key through its found result.
var ErrNotFound = errors.New("table: key not found")

const rootPageNum = 0

// BTree drives search/insert/delete over pages owned by a Pager. It
// holds no cached node state between calls; every operation re-reads
// the pages it needs.
type BTree struct {
	pager  *pager.Pager
	logger *zap.Logger
}

// OpenBTree wraps an existing pager. If the pager has no pages yet, it
// initializes page 0 as an empty root leaf.
func OpenBTree(p *pager.Pager, logger *zap.Logger) (*BTree, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &BTree{pager: p, logger: logger}
	if p.NumPages == 0 {
		pgno, err := p.AllocatePage()
		if err != nil {
			return nil, fmt.Errorf("table: OpenBTree: allocate root: %w", err)
		}
		if pgno != rootPageNum {
			return nil, fmt.Errorf("table: OpenBTree: expected root page 0, got %d", pgno)
		}
		root := newLeafNode(rootPageNum, true)
		if err := t.writeLeaf(root); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *BTree) writeLeaf(n *LeafNode) error {
	pg, err := t.pager.GetPage(n.Page())
	if err != nil {
		return fmt.Errorf("table: writeLeaf: get page %d: %w", n.Page(), err)
	}
	if err := n.serialize(pg); err != nil {
		return err
	}
	pg.Dirty = true
	return nil
}

func (t *BTree) writeInternal(n *InternalNode) error {
	pg, err := t.pager.GetPage(n.Page())
	if err != nil {
		return fmt.Errorf("table: writeInternal: get page %d: %w", n.Page(), err)
	}
	if err := n.serialize(pg); err != nil {
		return err
	}
	pg.Dirty = true
	return nil
}

// descendPath walks from the root to the leaf that should contain
// key, returning the internal pages visited (root-to-parent-of-leaf)
// and the leaf's page number.
func (t *BTree) descendPath(key uint32) (ancestors []uint32, leafPage uint32, err error) {
	page := uint32(rootPageNum)
	for {
		pg, err := t.pager.GetPage(page)
		if err != nil {
			return nil, 0, err
		}
		if pg.Data[0] == nodeTypeLeaf {
			return ancestors, page, nil
		}
		node, err := loadInternalNode(page, pg)
		if err != nil {
			return nil, 0, err
		}
		ancestors = append(ancestors, page)
		page = node.childFor(key)
	}
}

// Insert adds (key, row) to the tree, splitting leaves and internal
// nodes as needed and promoting new roots. It returns the set of page
// numbers whose on-disk image changed, for the caller to WAL-log.
func (t *BTree) Insert(key uint32, row Row) ([]uint32, error) {
	ancestors, leafPage, err := t.descendPath(key)
	if err != nil {
		return nil, err
	}
	pg, err := t.pager.GetPage(leafPage)
	if err != nil {
		return nil, err
	}
	leaf, err := loadLeafNode(leafPage, pg)
	if err != nil {
		return nil, err
	}

	idx, exact := leaf.find(key)
	if exact {
		return nil, ErrDuplicateKey
	}
	leaf.insertAt(idx, key, row)

	if len(leaf.cells) <= LeafNodeMaxCells {
		if err := t.writeLeaf(leaf); err != nil {
			return nil, err
		}
		return []uint32{leaf.Page()}, nil
	}

	sibling, err := leaf.split(t.pager)
	if err != nil {
		return nil, err
	}
	leftMaxKey := leaf.maxKey()
	rightMaxKey := sibling.maxKey()
	if err := t.writeLeaf(leaf); err != nil {
		return nil, err
	}
	if err := t.writeLeaf(sibling); err != nil {
		return nil, err
	}

	touched := []uint32{leaf.Page(), sibling.Page()}
	more, err := t.propagateSplit(ancestors, leaf.Page(), sibling.Page(), leftMaxKey, rightMaxKey)
	if err != nil {
		return nil, err
	}
	return append(touched, more...), nil
}

// propagateSplit inserts a new (child, key) separator into the parent
// named by the last entry of ancestors, splitting and recursing
// upward as needed. An empty ancestors means leftPage was the root,
// which is handled by splitRoot.
func (t *BTree) propagateSplit(ancestors []uint32, leftPage, rightPage, leftMaxKey, rightMaxKey uint32) ([]uint32, error) {
	if len(ancestors) == 0 {
		return t.splitRoot(leftPage, rightPage, leftMaxKey)
	}

	parentPage := ancestors[len(ancestors)-1]
	pg, err := t.pager.GetPage(parentPage)
	if err != nil {
		return nil, err
	}
	parent, err := loadInternalNode(parentPage, pg)
	if err != nil {
		return nil, err
	}
	parent.insertAfterChildSplit(leftPage, rightPage, rightMaxKey, leftMaxKey)

	if len(parent.cells) <= int(InternalNodeMaxCells) {
		if err := t.writeInternal(parent); err != nil {
			return nil, err
		}
		return []uint32{parent.Page()}, nil
	}

	sibling, promoted, err := parent.split(t.pager)
	if err != nil {
		return nil, err
	}
	siblingMaxKey := sibling.maxKey()
	if err := t.writeInternal(parent); err != nil {
		return nil, err
	}
	if err := t.writeInternal(sibling); err != nil {
		return nil, err
	}

	touched := []uint32{parent.Page(), sibling.Page()}
	more, err := t.propagateSplit(ancestors[:len(ancestors)-1], parent.Page(), sibling.Page(), promoted, siblingMaxKey)
	if err != nil {
		return nil, err
	}
	return append(touched, more...), nil
}

// splitRoot handles a split of the page-0 root: its content is copied
// into a freshly allocated page (demoted, isRoot cleared), and page 0
// is rewritten as a new internal root with two children.
func (t *BTree) splitRoot(oldRootPage, rightPage, leftMaxKey uint32) ([]uint32, error) {
	if oldRootPage != rootPageNum {
		return nil, fmt.Errorf("table: splitRoot: expected root page %d, got %d", rootPageNum, oldRootPage)
	}
	oldRootPg, err := t.pager.GetPage(oldRootPage)
	if err != nil {
		return nil, err
	}
	newLeftPage, err := t.pager.AllocatePage()
	if err != nil {
		return nil, fmt.Errorf("table: splitRoot: allocate relocated root: %w", err)
	}
	newLeftPg, err := t.pager.GetPage(newLeftPage)
	if err != nil {
		return nil, err
	}
	newLeftPg.Data = oldRootPg.Data
	newLeftPg.Data[IsRootOffset] = 0
	newLeftPg.Dirty = true

	newRoot := newInternalNode(rootPageNum, true)
	newRoot.cells = []InternalCell{{ChildPage: newLeftPage, Key: leftMaxKey}}
	newRoot.header.rightPointer = rightPage
	if err := t.writeInternal(newRoot); err != nil {
		return nil, err
	}

	return []uint32{newLeftPage, rootPageNum}, nil
}

// Delete removes key from the tree. No rebalancing/merging is
// performed; returns whether the key was found, and the pages whose
// on-disk image changed.
func (t *BTree) Delete(key uint32) (bool, []uint32, error) {
	_, leafPage, err := t.descendPath(key)
	if err != nil {
		return false, nil, err
	}
	pg, err := t.pager.GetPage(leafPage)
	if err != nil {
		return false, nil, err
	}
	leaf, err := loadLeafNode(leafPage, pg)
	if err != nil {
		return false, nil, err
	}

	idx, exact := leaf.find(key)
	if !exact {
		return false, nil, nil
	}
	leaf.cells = append(leaf.cells[:idx], leaf.cells[idx+1:]...)
	if err := t.writeLeaf(leaf); err != nil {
		return false, nil, err
	}
	return true, []uint32{leaf.Page()}, nil
}

// Cursor is a short-lived, forward-only position within the tree's
// leaf chain.
type Cursor struct {
	tree     *BTree
	leafPage uint32
	idx      int
	valid    bool
}

// Find descends to the leaf that should hold key and positions the
// cursor at the first cell with Key >= key.
func (t *BTree) Find(key uint32) (*Cursor, error) {
	_, leafPage, err := t.descendPath(key)
	if err != nil {
		return nil, err
	}
	pg, err := t.pager.GetPage(leafPage)
	if err != nil {
		return nil, err
	}
	leaf, err := loadLeafNode(leafPage, pg)
	if err != nil {
		return nil, err
	}
	idx, _ := leaf.find(key)
	return &Cursor{tree: t, leafPage: leafPage, idx: idx, valid: idx < len(leaf.cells)}, nil
}

// Start returns a cursor at the first row in key order.
func (t *BTree) Start() (*Cursor, error) {
	return t.Find(0)
}

func (c *Cursor) currentLeaf() (*LeafNode, error) {
	pg, err := c.tree.pager.GetPage(c.leafPage)
	if err != nil {
		return nil, err
	}
	return loadLeafNode(c.leafPage, pg)
}

// Valid reports whether the cursor is positioned at an existing cell.
func (c *Cursor) Valid() bool { return c.valid }

// Key returns the key at the cursor. Only valid if Valid() is true.
func (c *Cursor) Key() (uint32, error) {
	leaf, err := c.currentLeaf()
	if err != nil {
		return 0, err
	}
	return leaf.cells[c.idx].Key, nil
}

// Row returns the row at the cursor. Only valid if Valid() is true.
func (c *Cursor) Row() (Row, error) {
	leaf, err := c.currentLeaf()
	if err != nil {
		return Row{}, err
	}
	return leaf.cells[c.idx].Value, nil
}

// Advance moves the cursor to the next key in order, following the
// leaf chain when the current leaf is exhausted.
func (c *Cursor) Advance() error {
	if !c.valid {
		return nil
	}
	leaf, err := c.currentLeaf()
	if err != nil {
		return err
	}
	c.idx++
	if c.idx < len(leaf.cells) {
		return nil
	}
	if leaf.header.rightPointer == 0 {
		c.valid = false
		return nil
	}
	c.leafPage = leaf.header.rightPointer
	c.idx = 0
	next, err := c.currentLeaf()
	if err != nil {
		return err
	}
	c.valid = len(next.cells) > 0
	return nil
}

// IsRootOffset is the byte offset of the is_root flag within a page,
// shared by both node header layouts.
const IsRootOffset = NodeTypeSize
