package table

import (
	"fmt"
	"io"
	"strings"
)

// DumpTree pretty-prints the tree rooted at page 0: each internal
// node is followed by its children in order, each leaf lists its
// keys, indentation tracks depth.
func (t *Table) DumpTree(w io.Writer) error {
	return t.dumpNode(w, rootPageNum, 0)
}

func (t *Table) dumpNode(w io.Writer, pageNum uint32, indent int) error {
	pg, err := t.pager.GetPage(pageNum)
	if err != nil {
		return fmt.Errorf("table: DumpTree: get page %d: %w", pageNum, err)
	}
	pad := strings.Repeat("  ", indent)

	if pg.Data[0] == nodeTypeLeaf {
		leaf, err := loadLeafNode(pageNum, pg)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s- leaf (page %d, size %d)\n", pad, pageNum, leaf.NumCells())
		for _, c := range leaf.cells {
			fmt.Fprintf(w, "%s  - %d\n", pad, c.Key)
		}
		return nil
	}

	node, err := loadInternalNode(pageNum, pg)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s- internal (page %d, size %d)\n", pad, pageNum, node.NumCells())
	for _, c := range node.cells {
		if err := t.dumpNode(w, c.ChildPage, indent+1); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s  key %d\n", pad, c.Key)
	}
	return t.dumpNode(w, node.header.rightPointer, indent+1)
}
