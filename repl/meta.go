package repl

import (
	"fmt"
	"io"

	"minidb/pager"
	"minidb/table"
)

// MetaResult reports whether a "." command was recognized.
type MetaResult int

const (
	MetaSuccess MetaResult = iota
	MetaUnrecognized
	MetaExit
)

// DoMetaCommand handles every "." command. MetaExit tells the caller
// to close the context and stop the REPL loop; the caller is
// responsible for actually calling Context.Close and exiting.
func (c *Context) DoMetaCommand(w io.Writer, line string) MetaResult {
	switch line {
	case ".exit":
		return MetaExit
	case ".btree":
		fmt.Fprintln(w, "Tree:")
		if err := c.Primary.DumpTree(w); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
		}
		return MetaSuccess
	case ".constants":
		c.printConstants(w)
		return MetaSuccess
	case ".schema":
		c.printSchema(w)
		return MetaSuccess
	case ".stats":
		c.printStats(w)
		return MetaSuccess
	case ".indexes":
		c.printIndexes(w)
		return MetaSuccess
	case ".checkpoint":
		if err := c.Primary.Checkpoint(); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
		}
		return MetaSuccess
	case ".begin":
		c.Primary.BeginTransaction()
		return MetaSuccess
	case ".commit":
		if err := c.Primary.CommitTransaction(); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
		}
		return MetaSuccess
	default:
		return MetaUnrecognized
	}
}

func (c *Context) printConstants(w io.Writer) {
	fmt.Fprintln(w, "Constants:")
	fmt.Fprintf(w, "ROW_SIZE: %d\n", table.RowSize)
	fmt.Fprintf(w, "COMMON_NODE_HEADER_SIZE: %d\n", table.CommonNodeHeaderSize)
	fmt.Fprintf(w, "LEAF_NODE_HEADER_SIZE: %d\n", table.LeafNodeHeaderSize)
	fmt.Fprintf(w, "LEAF_NODE_CELL_SIZE: %d\n", table.LeafNodeCellSize)
	fmt.Fprintf(w, "LEAF_NODE_SPACE_FOR_CELLS: %d\n", table.LeafNodeSpaceForCells)
	fmt.Fprintf(w, "LEAF_NODE_MAX_CELLS: %d\n", table.LeafNodeMaxCells)
	fmt.Fprintf(w, "INTERNAL_NODE_MAX_CELLS: %d\n", table.InternalNodeMaxCells)
	fmt.Fprintf(w, "TABLE_MAX_PAGES: %d\n", pager.TableMaxPages)
	fmt.Fprintf(w, "PAGE_SIZE: %d\n", pager.PageSize)
}

func (c *Context) printSchema(w io.Writer) {
	tables := c.Schema.Tables()
	if len(tables) == 0 {
		fmt.Fprintln(w, "(no tables registered)")
		return
	}
	for _, t := range tables {
		fmt.Fprintf(w, "TABLE %s\n", t.Name)
		for i, col := range t.Columns {
			marker := ""
			if i == t.PrimaryKeyIndex && col.PrimaryKey {
				marker = " PRIMARY KEY"
			}
			fmt.Fprintf(w, "  %s %s%s\n", col.Name, col.Type, marker)
		}
	}
}

func (c *Context) printStats(w io.Writer) {
	s := c.Stats
	fmt.Fprintln(w, "Query Statistics:")
	fmt.Fprintf(w, "  Full scans: %d\n", s.FullScans)
	fmt.Fprintf(w, "  Index searches: %d\n", s.IndexSearches)
	fmt.Fprintf(w, "  Rows scanned: %d\n", s.RowsScanned)
	fmt.Fprintf(w, "  Rows returned: %d\n", s.RowsReturned)
	fmt.Fprintf(w, "  Efficiency: %.2f%%\n", s.Efficiency())
}

func (c *Context) printIndexes(w io.Writer) {
	fmt.Fprintln(w, "=== Secondary Indexes ===")
	for _, idx := range c.Indexes.List() {
		idx.Print(w)
	}
}
