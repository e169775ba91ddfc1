package table

import "minidb/pager"

const (
	// Row layout: id(4) + username(32, NUL-padded) + email(255, NUL-padded).
	IDSize       = 4
	UsernameSize = 32
	EmailSize    = 255
	RowSize      = IDSize + UsernameSize + EmailSize

	IDOffset       = 0
	UsernameOffset = IDOffset + IDSize
	EmailOffset    = UsernameOffset + UsernameSize
)

const (
	// Common node header: node_type(1) + is_root(1) + parent_page_num(4).
	NodeTypeSize         = 1
	IsRootSize           = 1
	ParentPointerSize    = 4
	CommonNodeHeaderSize = NodeTypeSize + IsRootSize + ParentPointerSize

	// Leaf node header adds num_cells(4) + next_leaf_page_num(4).
	LeafNodeNumCellsSize    = 4
	LeafNodeNextLeafSize    = 4
	LeafNodeHeaderSize      = CommonNodeHeaderSize + LeafNodeNumCellsSize + LeafNodeNextLeafSize
	LeafNodeKeySize         = 4
	LeafNodeCellSize        = LeafNodeKeySize + RowSize
	LeafNodeSpaceForCells   = pager.PageSize - LeafNodeHeaderSize
	LeafNodeMaxCells        = LeafNodeSpaceForCells / LeafNodeCellSize
	LeafNodeRightSplitCount = (LeafNodeMaxCells + 1) / 2
	LeafNodeLeftSplitCount  = (LeafNodeMaxCells + 1) - LeafNodeRightSplitCount

	// Internal node header adds num_keys(4) + right_child_page_num(4).
	InternalNodeNumKeysSize     = 4
	InternalNodeRightChildSize  = 4
	InternalNodeHeaderSize      = CommonNodeHeaderSize + InternalNodeNumKeysSize + InternalNodeRightChildSize
	InternalNodeChildSize       = 4
	InternalNodeKeySize         = 4
	InternalNodeCellSize        = InternalNodeChildSize + InternalNodeKeySize
)

// InternalNodeMaxCells is kept artificially small (rather than the
// ~510 cells PageSize/InternalNodeCellSize would allow) so internal
// node splits are reachable with a few hundred rows instead of
// millions, the same trick the classic single-file SQLite tutorials
// use under a build-time override.
var InternalNodeMaxCells uint32 = 3

const (
	nodeTypeLeaf     byte = 1
	nodeTypeInternal byte = 2
)
