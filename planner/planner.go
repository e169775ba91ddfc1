package planner

import (
	"minidb/sqllang"
	"minidb/table"
)

// Build constructs a cost-estimated Plan for stmt given the table's
// current row count and, for SELECT, whether a secondary index exists
// on the WHERE column.
func Build(stmt *sqllang.Statement, rowCount uint32, hasSecondaryIndex bool) Plan {
	switch stmt.Kind {
	case sqllang.StmtSelect:
		return buildSelect(stmt, rowCount, hasSecondaryIndex)
	case sqllang.StmtInsert:
		return Plan{
			ScanType:      IndexSearch,
			IndexColumn:   "id",
			EstimatedRows: 1,
			EstimatedCost: treeHeight(rowCount)*5 + 10,
			UsesIndex:     true,
		}
	case sqllang.StmtUpdate:
		return buildMutate(stmt, rowCount, 15, 50)
	case sqllang.StmtDelete:
		return buildMutate(stmt, rowCount, 20, 100)
	default:
		return Plan{ScanType: FullTable, EstimatedRows: rowCount, EstimatedCost: rowCount * 5}
	}
}

func buildSelect(stmt *sqllang.Statement, rowCount uint32, hasSecondaryIndex bool) Plan {
	if stmt.HasWhere && stmt.WhereColumn == "id" {
		return Plan{
			ScanType:      IndexSearch,
			IndexColumn:   "id",
			EstimatedRows: 1,
			EstimatedCost: treeHeight(rowCount) * 5,
			UsesIndex:     true,
		}
	}
	// A secondary-indexed WHERE column still reports cost as the
	// full-scan alternative: the planner's cost estimate doesn't know
	// about secondary indexes, only the executor's access path does
	// (spec §4.9 — the plan's uses_index/scan_type are reported as if
	// the full-scan path were taken, even though the executor actually
	// uses the index).
	cost := rowCount * 5
	if rowCount == 0 {
		cost = 1
	}
	return Plan{ScanType: FullTable, EstimatedRows: rowCount, EstimatedCost: cost}
}

func buildMutate(stmt *sqllang.Statement, rowCount uint32, idCostAdd, fullScanAdd uint32) Plan {
	if stmt.HasWhere && stmt.WhereColumn == "id" {
		return Plan{
			ScanType:      IndexSearch,
			IndexColumn:   "id",
			EstimatedRows: 1,
			EstimatedCost: treeHeight(rowCount)*5 + idCostAdd,
			UsesIndex:     true,
		}
	}
	return Plan{
		ScanType:      FullTable,
		EstimatedRows: rowCount,
		EstimatedCost: rowCount*10 + fullScanAdd,
	}
}

// treeHeight estimates the tree's depth the same way the original
// does: starting at 1, it adds a level each time it divides rowCount
// by LeafNodeMaxCells, until the quotient no longer exceeds
// LeafNodeMaxCells. Up to LeafNodeMaxCells rows this gives 1.
func treeHeight(rowCount uint32) uint32 {
	height := uint32(1)
	temp := rowCount
	for temp > table.LeafNodeMaxCells {
		height++
		temp /= table.LeafNodeMaxCells
	}
	return height
}
