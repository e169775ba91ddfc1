package table

import (
	"encoding/binary"
	"fmt"
	"sort"

	"minidb/pager"
)

// LeafCell is one (key, row) pair stored in a leaf page.
type LeafCell struct {
	Key   uint32
	Value Row
}

// InternalCell is one (child_page, max_key_of_child_subtree) pair
// stored in an internal page.
type InternalCell struct {
	ChildPage uint32
	Key       uint32
}

// LeafNode is the in-memory view of a leaf page: a header plus a
// sorted slice of cells.
type LeafNode struct {
	header baseHeader
	cells  []LeafCell
}

func newLeafNode(pageNum uint32, isRoot bool) *LeafNode {
	return &LeafNode{header: baseHeader{pageNum: pageNum, isRoot: isRoot}}
}

func (n *LeafNode) Page() uint32  { return n.header.pageNum }
func (n *LeafNode) IsLeaf() bool  { return true }
func (n *LeafNode) IsRoot() bool  { return n.header.isRoot }
func (n *LeafNode) NumCells() int { return len(n.cells) }

// find returns the index of the first cell with Key >= key (the
// insertion/search point), and whether that cell's key equals key.
func (n *LeafNode) find(key uint32) (idx int, exact bool) {
	idx = sort.Search(len(n.cells), func(i int) bool { return n.cells[i].Key >= key })
	exact = idx < len(n.cells) && n.cells[idx].Key == key
	return idx, exact
}

// insertAt places a new cell at idx without checking for overflow;
// the caller splits first if needed.
func (n *LeafNode) insertAt(idx int, key uint32, row Row) {
	n.cells = append(n.cells, LeafCell{})
	copy(n.cells[idx+1:], n.cells[idx:])
	n.cells[idx] = LeafCell{Key: key, Value: row}
}

// split partitions a full leaf: the left ⌈(MAX+1)/2⌉ cells stay, the
// rest move to a freshly allocated sibling, linked via next_leaf. The
// new cell has already been inserted into n.cells by the caller,
// making len(n.cells) == LeafNodeMaxCells+1.
func (n *LeafNode) split(p *pager.Pager) (*LeafNode, error) {
	siblingPage, err := p.AllocatePage()
	if err != nil {
		return nil, fmt.Errorf("table: leaf split: allocate sibling: %w", err)
	}
	sibling := newLeafNode(siblingPage, false)
	sibling.header.parentPage = n.header.parentPage

	total := len(n.cells)
	left := LeafNodeLeftSplitCount
	sibling.cells = append(sibling.cells, n.cells[left:total]...)
	n.cells = n.cells[:left]

	sibling.header.rightPointer = n.header.rightPointer
	n.header.rightPointer = siblingPage

	return sibling, nil
}

func (n *LeafNode) maxKey() uint32 {
	if len(n.cells) == 0 {
		return 0
	}
	return n.cells[len(n.cells)-1].Key
}

func (n *LeafNode) serialize(p *pager.Page) error {
	for i := range p.Data {
		p.Data[i] = 0
	}
	n.header.numCells = uint32(len(n.cells))
	n.header.writeTo(p.Data[:CommonNodeHeaderSize+LeafNodeNumCellsSize+LeafNodeNextLeafSize], nodeTypeLeaf)
	off := LeafNodeHeaderSize
	for _, c := range n.cells {
		binary.LittleEndian.PutUint32(p.Data[off:off+LeafNodeKeySize], c.Key)
		off += LeafNodeKeySize
		if err := SerializeRow(c.Value, p.Data[off:off+RowSize]); err != nil {
			return fmt.Errorf("table: leaf serialize: %w", err)
		}
		off += RowSize
	}
	return nil
}

func loadLeafNode(pageNum uint32, p *pager.Page) (*LeafNode, error) {
	if p.Data[0] != nodeTypeLeaf {
		return nil, fmt.Errorf("table: loadLeafNode: page %d is not a leaf (type=%d)", pageNum, p.Data[0])
	}
	n := &LeafNode{header: baseHeader{pageNum: pageNum}}
	n.header.readFrom(p.Data[:CommonNodeHeaderSize+LeafNodeNumCellsSize+LeafNodeNextLeafSize])
	cnt := int(n.header.numCells)
	n.cells = make([]LeafCell, cnt)
	off := LeafNodeHeaderSize
	for i := 0; i < cnt; i++ {
		key := binary.LittleEndian.Uint32(p.Data[off : off+LeafNodeKeySize])
		off += LeafNodeKeySize
		row, err := DeserializeRow(p.Data[off : off+RowSize])
		if err != nil {
			return nil, fmt.Errorf("table: loadLeafNode: %w", err)
		}
		off += RowSize
		n.cells[i] = LeafCell{Key: key, Value: row}
	}
	return n, nil
}

// InternalNode is the in-memory view of an internal page.
type InternalNode struct {
	header baseHeader
	cells  []InternalCell
}

func newInternalNode(pageNum uint32, isRoot bool) *InternalNode {
	return &InternalNode{header: baseHeader{pageNum: pageNum, isRoot: isRoot}}
}

func (n *InternalNode) Page() uint32  { return n.header.pageNum }
func (n *InternalNode) IsLeaf() bool  { return false }
func (n *InternalNode) IsRoot() bool  { return n.header.isRoot }
func (n *InternalNode) NumCells() int { return len(n.cells) }

// childFor returns the child page that should contain key, by binary
// search over the (child, max_key) array.
func (n *InternalNode) childFor(key uint32) uint32 {
	idx := sort.Search(len(n.cells), func(i int) bool { return n.cells[i].Key >= key })
	if idx < len(n.cells) {
		return n.cells[idx].ChildPage
	}
	return n.header.rightPointer
}

// insertAfterChildSplit splices a new (child, key) separator in after
// a child split, updating the entry for oldChild to the new max key.
func (n *InternalNode) insertAfterChildSplit(oldChildPage, newChildPage, newChildMaxKey uint32, oldChildNewMaxKey uint32) {
	idx := len(n.cells)
	for i, c := range n.cells {
		if c.ChildPage == oldChildPage {
			idx = i
			break
		}
	}
	if idx < len(n.cells) {
		n.cells[idx].Key = oldChildNewMaxKey
	} else if n.header.rightPointer == oldChildPage {
		// old child was the rightmost; the new child takes its place
		// as rightmost, and old child gets an explicit cell.
		n.cells = append(n.cells, InternalCell{ChildPage: oldChildPage, Key: oldChildNewMaxKey})
		n.header.rightPointer = newChildPage
		return
	}

	at := idx + 1
	n.cells = append(n.cells, InternalCell{})
	copy(n.cells[at+1:], n.cells[at:])
	n.cells[at] = InternalCell{ChildPage: newChildPage, Key: newChildMaxKey}
}

func (n *InternalNode) maxKey() uint32 {
	if len(n.cells) == 0 {
		return 0
	}
	return n.cells[len(n.cells)-1].Key
}

// split partitions an overflowing internal node: the median cell's
// key is promoted to the parent (not duplicated into either child),
// its child page becomes the left node's new right pointer, and
// everything after the median moves to a new sibling.
func (n *InternalNode) split(p *pager.Pager) (sibling *InternalNode, promotedKey uint32, err error) {
	siblingPage, err := p.AllocatePage()
	if err != nil {
		return nil, 0, fmt.Errorf("table: internal split: allocate sibling: %w", err)
	}
	sibling = newInternalNode(siblingPage, false)
	sibling.header.parentPage = n.header.parentPage

	mid := len(n.cells) / 2
	median := n.cells[mid]

	sibling.cells = append(sibling.cells, n.cells[mid+1:]...)
	sibling.header.rightPointer = n.header.rightPointer

	n.cells = n.cells[:mid]
	n.header.rightPointer = median.ChildPage

	return sibling, median.Key, nil
}

func (n *InternalNode) serialize(p *pager.Page) error {
	for i := range p.Data {
		p.Data[i] = 0
	}
	n.header.numCells = uint32(len(n.cells))
	n.header.writeTo(p.Data[:CommonNodeHeaderSize+InternalNodeNumKeysSize+InternalNodeRightChildSize], nodeTypeInternal)
	off := InternalNodeHeaderSize
	for _, c := range n.cells {
		binary.LittleEndian.PutUint32(p.Data[off:off+InternalNodeChildSize], c.ChildPage)
		off += InternalNodeChildSize
		binary.LittleEndian.PutUint32(p.Data[off:off+InternalNodeKeySize], c.Key)
		off += InternalNodeKeySize
	}
	return nil
}

func loadInternalNode(pageNum uint32, p *pager.Page) (*InternalNode, error) {
	if p.Data[0] != nodeTypeInternal {
		return nil, fmt.Errorf("table: loadInternalNode: page %d is not internal (type=%d)", pageNum, p.Data[0])
	}
	n := &InternalNode{header: baseHeader{pageNum: pageNum}}
	n.header.readFrom(p.Data[:CommonNodeHeaderSize+InternalNodeNumKeysSize+InternalNodeRightChildSize])
	cnt := int(n.header.numCells)
	n.cells = make([]InternalCell, cnt)
	off := InternalNodeHeaderSize
	for i := 0; i < cnt; i++ {
		child := binary.LittleEndian.Uint32(p.Data[off : off+InternalNodeChildSize])
		off += InternalNodeChildSize
		key := binary.LittleEndian.Uint32(p.Data[off : off+InternalNodeKeySize])
		off += InternalNodeKeySize
		n.cells[i] = InternalCell{ChildPage: child, Key: key}
	}
	return n, nil
}
