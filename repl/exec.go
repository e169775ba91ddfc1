package repl

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"minidb/index"
	"minidb/planner"
	"minidb/sqllang"
	"minidb/table"
)

// Result is the small result enum the executor reports back to the
// REPL loop, mirroring the four outcomes the original engine
// distinguishes.
type Result int

const (
	Success Result = iota
	DuplicateKey
	TableFull
	NotFound
)

// Execute runs one parsed statement, writing any SELECT/EXPLAIN
// output to w. CREATE TABLE/INDEX bypass the planner entirely; every
// other statement is costed first, and EXPLAIN short-circuits before
// any mutation or scan happens.
func (c *Context) Execute(w io.Writer, stmt *sqllang.Statement) (Result, error) {
	switch stmt.Kind {
	case sqllang.StmtCreateTable:
		return c.execCreateTable(w, stmt)
	case sqllang.StmtCreateIndex:
		return c.execCreateIndex(w, stmt)
	}

	rowCount, err := c.Primary.CountRows()
	if err != nil {
		return Success, fmt.Errorf("repl: Execute: count rows: %w", err)
	}

	hasSecondaryIndex := false
	if stmt.Kind == sqllang.StmtSelect && stmt.HasWhere {
		_, hasSecondaryIndex = c.Indexes.Get(primaryTableName, stmt.WhereColumn)
	}
	plan := planner.Build(stmt, uint32(rowCount), hasSecondaryIndex)

	if stmt.IsExplain {
		fmt.Fprint(w, plan.Explain())
		return Success, nil
	}

	var result Result
	var rowsReturned uint32

	switch stmt.Kind {
	case sqllang.StmtInsert:
		result, err = c.execInsert(stmt)
		if result == Success {
			rowsReturned = 1
		}
	case sqllang.StmtSelect:
		if stmt.HasJoin {
			result, rowsReturned, err = c.execJoin(w, stmt)
		} else {
			result, rowsReturned, err = c.execSelect(w, stmt)
		}
	case sqllang.StmtUpdate:
		result, err = c.execUpdate(stmt)
		if result == Success {
			rowsReturned = 1
		}
	case sqllang.StmtDelete:
		result, err = c.execDelete(stmt)
	}
	if err != nil {
		return result, err
	}

	if result == Success {
		c.Stats.Record(plan, rowsReturned)
	}
	return result, nil
}

func (c *Context) execCreateTable(w io.Writer, stmt *sqllang.Statement) (Result, error) {
	if err := c.Schema.AddTable(stmt.TableName, stmt.Columns); err != nil {
		return TableFull, err
	}
	fmt.Fprintf(w, "Table '%s' created successfully.\n", stmt.TableName)
	return Success, nil
}

func (c *Context) execCreateIndex(w io.Writer, stmt *sqllang.Statement) (Result, error) {
	idx, err := c.Indexes.Create(stmt.IndexTable, stmt.IndexColumn)
	if err != nil {
		return TableFull, err
	}
	tbl, err := c.tableFor(stmt.IndexTable)
	if err != nil {
		return TableFull, err
	}
	fmt.Fprintf(w, "Building index on %s.%s...\n", stmt.IndexTable, stmt.IndexColumn)
	n, err := index.BuildFromTable(idx, tbl)
	if err != nil {
		return TableFull, err
	}
	fmt.Fprintf(w, "Index built: %d entries.\n", n)
	return Success, nil
}

func (c *Context) execInsert(stmt *sqllang.Statement) (Result, error) {
	row := table.Row{ID: stmt.InsertID, Username: stmt.InsertUsername, Email: stmt.InsertEmail}
	if err := c.Primary.InsertRow(row); err != nil {
		if errors.Is(err, table.ErrDuplicateKey) {
			return DuplicateKey, nil
		}
		return Success, err
	}

	if idx, ok := c.Indexes.Get(primaryTableName, "username"); ok {
		idx.Insert(row.Username, row.ID)
	}
	if idx, ok := c.Indexes.Get(primaryTableName, "email"); ok {
		idx.Insert(row.Email, row.ID)
	}
	return Success, nil
}

func (c *Context) execUpdate(stmt *sqllang.Statement) (Result, error) {
	if !stmt.HasWhere || stmt.WhereColumn != "id" {
		return NotFound, fmt.Errorf("repl: UPDATE requires a WHERE id = v clause")
	}
	key, err := parseUint32(stmt.WhereValue)
	if err != nil {
		return NotFound, err
	}
	c2, err := c.Primary.Find(key)
	if err != nil {
		return Success, err
	}
	if !c2.Valid() {
		return NotFound, nil
	}
	k, err := c2.Key()
	if err != nil {
		return Success, err
	}
	if k != key {
		return NotFound, nil
	}
	row, err := c2.Row()
	if err != nil {
		return Success, err
	}

	for _, a := range stmt.Assignments {
		switch a.Column {
		case "username":
			row.Username = a.Value
		case "email":
			row.Email = a.Value
		}
	}

	if err := c.Primary.UpdateRow(row); err != nil {
		if errors.Is(err, table.ErrNotFound) {
			return NotFound, nil
		}
		return Success, err
	}
	return Success, nil
}

func (c *Context) execDelete(stmt *sqllang.Statement) (Result, error) {
	if !stmt.HasWhere || stmt.WhereColumn != "id" {
		return NotFound, fmt.Errorf("repl: DELETE requires a WHERE id = v clause")
	}
	key, err := parseUint32(stmt.WhereValue)
	if err != nil {
		return NotFound, err
	}
	found, err := c.Primary.DeleteRow(key)
	if err != nil {
		return Success, err
	}
	if !found {
		return NotFound, nil
	}
	return Success, nil
}

// execSelect handles every non-JOIN SELECT: aggregation, secondary
// index lookup, primary-key probe, and full scan with optional
// ORDER BY/LIMIT.
func (c *Context) execSelect(w io.Writer, stmt *sqllang.Statement) (Result, uint32, error) {
	tbl, err := c.tableFor(stmt.FromTable)
	if err != nil {
		return Success, 0, err
	}

	if stmt.HasAggregation {
		return c.execAggregate(w, tbl, stmt)
	}

	if stmt.HasWhere && stmt.WhereColumn != "id" {
		if idx, ok := c.Indexes.Get(primaryTableName, stmt.WhereColumn); ok {
			return c.execIndexedSelect(w, tbl, idx, stmt)
		}
	}

	if stmt.HasWhere && stmt.WhereColumn == "id" {
		return c.execPrimaryKeySelect(w, tbl, stmt)
	}

	return c.execFullScanSelect(w, tbl, stmt)
}

func (c *Context) execAggregate(w io.Writer, tbl *table.Table, stmt *sqllang.Statement) (Result, uint32, error) {
	cur, err := tbl.Start()
	if err != nil {
		return Success, 0, err
	}

	var count uint32
	var sum uint32
	var maxVal uint32
	minVal := ^uint32(0)

	for cur.Valid() {
		row, err := cur.Row()
		if err != nil {
			return Success, 0, err
		}
		if rowMatchesWhere(row, stmt) {
			count++
			if stmt.AggColumn == "id" || stmt.AggColumn == "*" {
				sum += row.ID
				if row.ID > maxVal {
					maxVal = row.ID
				}
				if row.ID < minVal {
					minVal = row.ID
				}
			}
		}
		if err := cur.Advance(); err != nil {
			return Success, 0, err
		}
	}

	switch stmt.AggKind {
	case sqllang.AggCount:
		fmt.Fprintf(w, "COUNT: %d\n", count)
	case sqllang.AggSum:
		fmt.Fprintf(w, "SUM: %d\n", sum)
	case sqllang.AggAvg:
		if count > 0 {
			fmt.Fprintf(w, "AVG: %.2f\n", float64(sum)/float64(count))
		} else {
			fmt.Fprintln(w, "AVG: 0")
		}
	case sqllang.AggMax:
		if count > 0 {
			fmt.Fprintf(w, "MAX: %d\n", maxVal)
		} else {
			fmt.Fprintln(w, "MAX: NULL")
		}
	case sqllang.AggMin:
		if count > 0 {
			fmt.Fprintf(w, "MIN: %d\n", minVal)
		} else {
			fmt.Fprintln(w, "MIN: NULL")
		}
	}
	return Success, 1, nil
}

func (c *Context) execIndexedSelect(w io.Writer, tbl *table.Table, idx *index.SecondaryIndex, stmt *sqllang.Statement) (Result, uint32, error) {
	fmt.Fprintf(w, "Using secondary index on %s\n", stmt.WhereColumn)
	var rowsReturned uint32
	for _, id := range idx.Lookup(stmt.WhereValue) {
		cur, err := tbl.Find(id)
		if err != nil {
			return Success, rowsReturned, err
		}
		if cur.Valid() {
			row, err := cur.Row()
			if err != nil {
				return Success, rowsReturned, err
			}
			fmt.Fprintf(w, "(%d, %s, %s)\n", row.ID, row.Username, row.Email)
			rowsReturned++
		}
	}
	return Success, rowsReturned, nil
}

func (c *Context) execPrimaryKeySelect(w io.Writer, tbl *table.Table, stmt *sqllang.Statement) (Result, uint32, error) {
	key, err := parseUint32(stmt.WhereValue)
	if err != nil {
		return Success, 0, err
	}
	cur, err := tbl.Find(key)
	if err != nil {
		return Success, 0, err
	}
	if !cur.Valid() {
		return Success, 0, nil
	}
	k, err := cur.Key()
	if err != nil {
		return Success, 0, err
	}
	if k != key {
		return Success, 0, nil
	}
	row, err := cur.Row()
	if err != nil {
		return Success, 0, err
	}
	fmt.Fprintf(w, "(%d, %s, %s)\n", row.ID, row.Username, row.Email)
	return Success, 1, nil
}

// maxOrderedRows bounds the in-memory buffer used to sort ORDER BY
// results, matching the original engine's fixed 1000-row cap.
const maxOrderedRows = 1000

func (c *Context) execFullScanSelect(w io.Writer, tbl *table.Table, stmt *sqllang.Statement) (Result, uint32, error) {
	cur, err := tbl.Start()
	if err != nil {
		return Success, 0, err
	}

	var rowsReturned uint32
	var buffered []table.Row

	for cur.Valid() {
		row, err := cur.Row()
		if err != nil {
			return Success, rowsReturned, err
		}
		if rowMatchesWhere(row, stmt) {
			if stmt.HasOrderBy {
				if len(buffered) < maxOrderedRows {
					buffered = append(buffered, row)
				}
			} else {
				fmt.Fprintf(w, "(%d, %s, %s)\n", row.ID, row.Username, row.Email)
				rowsReturned++
				if stmt.HasLimit && rowsReturned >= stmt.Limit {
					break
				}
			}
		}
		if err := cur.Advance(); err != nil {
			return Success, rowsReturned, err
		}
	}

	if stmt.HasOrderBy {
		sortRows(buffered, stmt.OrderByColumn, stmt.OrderAscending)
		limit := uint32(len(buffered))
		if stmt.HasLimit && stmt.Limit < limit {
			limit = stmt.Limit
		}
		for i := uint32(0); i < limit; i++ {
			row := buffered[i]
			fmt.Fprintf(w, "(%d, %s, %s)\n", row.ID, row.Username, row.Email)
			rowsReturned++
		}
	}

	return Success, rowsReturned, nil
}

func sortRows(rows []table.Row, column string, ascending bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		var less bool
		switch column {
		case "username":
			less = rows[i].Username < rows[j].Username
		default:
			less = rows[i].ID < rows[j].ID
		}
		if ascending {
			return less
		}
		switch column {
		case "username":
			return rows[i].Username > rows[j].Username
		default:
			return rows[i].ID > rows[j].ID
		}
	})
}

func rowMatchesWhere(row table.Row, stmt *sqllang.Statement) bool {
	if !stmt.HasWhere {
		return true
	}
	switch stmt.WhereColumn {
	case "id":
		key, err := parseUint32(stmt.WhereValue)
		return err == nil && row.ID == key
	case "username":
		return row.Username == stmt.WhereValue
	case "email":
		return row.Email == stmt.WhereValue
	default:
		return true
	}
}

func parseUint32(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("repl: invalid integer %q: %w", s, err)
	}
	return uint32(n), nil
}
