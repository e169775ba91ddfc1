package planner

import "fmt"

// Explain formats p the way the original optimizer's print_query_plan
// does, used by EXPLAIN and by test scenario 6 in spec §8.
func (p Plan) Explain() string {
	s := fmt.Sprintf("Scan Type: %s\n", p.ScanType)
	if p.IndexColumn != "" {
		s += fmt.Sprintf("Index Used: %s (Primary Key)\n", p.IndexColumn)
	} else {
		s += "Index Used: NONE (Sequential Scan)\n"
	}
	s += fmt.Sprintf("Estimated Rows: %d\n", p.EstimatedRows)
	s += fmt.Sprintf("Estimated Cost: %d", p.EstimatedCost)
	if p.UsesIndex {
		s += " (O(log n) - Binary Search)\n"
	} else {
		s += " (O(n) - Linear Scan)\n"
	}
	return s
}
