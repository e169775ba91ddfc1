package repl

import (
	"fmt"
	"io"

	"minidb/sqllang"
	"minidb/table"
)

// joinColumnsSupported reports whether the named column pair can be
// evaluated. Unlike the original engine, which compared every JOIN by
// the row's id field regardless of what columns were actually named,
// this only accepts the column pairs the fixed three-column row type
// can express as an integer comparison.
func joinColumnsSupported(leftColumn, rightColumn string) bool {
	if leftColumn != "id" {
		return false
	}
	return rightColumn == "id" || rightColumn == "user_id"
}

// execJoin performs a nested-loop INNER JOIN: every left row is
// compared against every right row, matching only for the column
// pairs joinColumnsSupported accepts (both resolve to the integer id
// field, since that's the only integer column the row format has).
func (c *Context) execJoin(w io.Writer, stmt *sqllang.Statement) (Result, uint32, error) {
	j := stmt.Join
	left, err := c.tableFor(j.LeftTable)
	if err != nil {
		return Success, 0, fmt.Errorf("repl: execJoin: open %q: %w", j.LeftTable, err)
	}
	right, err := c.tableFor(j.RightTable)
	if err != nil {
		return Success, 0, fmt.Errorf("repl: execJoin: open %q: %w", j.RightTable, err)
	}

	if !joinColumnsSupported(j.LeftColumn, j.RightColumn) {
		fmt.Fprintf(w, "Error: unsupported JOIN columns %s.%s = %s.%s\n",
			j.LeftTable, j.LeftColumn, j.RightTable, j.RightColumn)
		return Success, 0, nil
	}

	fmt.Fprintf(w, "Performing INNER JOIN on %s.%s = %s.%s\n",
		j.LeftTable, j.LeftColumn, j.RightTable, j.RightColumn)

	var matches uint32
	leftCur, err := left.Start()
	if err != nil {
		return Success, 0, err
	}
	for leftCur.Valid() {
		leftRow, err := leftCur.Row()
		if err != nil {
			return Success, matches, err
		}

		rightCur, err := right.Start()
		if err != nil {
			return Success, matches, err
		}
		for rightCur.Valid() {
			rightRow, err := rightCur.Row()
			if err != nil {
				return Success, matches, err
			}
			if leftRow.ID == rightRow.ID {
				printJoinMatch(w, j, leftRow, rightRow)
				matches++
			}
			if err := rightCur.Advance(); err != nil {
				return Success, matches, err
			}
		}

		if err := leftCur.Advance(); err != nil {
			return Success, matches, err
		}
	}

	return Success, matches, nil
}

func printJoinMatch(w io.Writer, j *sqllang.JoinClause, left, right table.Row) {
	fmt.Fprintf(w, "%s: (%d, %s, %s) | %s: (%d, %s, %s)\n",
		j.LeftTable, left.ID, left.Username, left.Email,
		j.RightTable, right.ID, right.Username, right.Email)
}
