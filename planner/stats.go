package planner

import "go.uber.org/zap"

// Stats accumulates counters across every plan execution in a
// session; it is process-wide state owned by the REPL's context.
type Stats struct {
	FullScans     uint32
	IndexSearches uint32
	RowsScanned   uint32
	RowsReturned  uint32

	logger *zap.Logger
}

// NewStats returns a zeroed counter set.
func NewStats(logger *zap.Logger) *Stats {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stats{logger: logger}
}

// Record updates the counters after a plan has executed and returned
// rowsReturned rows.
func (s *Stats) Record(p Plan, rowsReturned uint32) {
	switch p.ScanType {
	case FullTable:
		s.FullScans++
	case IndexSearch, IndexRange:
		s.IndexSearches++
	}
	s.RowsScanned += p.EstimatedRows
	s.RowsReturned += rowsReturned
}

// Efficiency returns the rows-returned/rows-scanned percentage, or 0
// if nothing has been scanned yet.
func (s *Stats) Efficiency() float64 {
	if s.RowsScanned == 0 {
		return 0
	}
	return float64(s.RowsReturned) / float64(s.RowsScanned) * 100
}
