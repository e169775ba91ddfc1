package table

import (
	"os"
	"path/filepath"
	"testing"
)

func newTempTable(t *testing.T) *Table {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users")
	tb, err := Open(path, "users", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { tb.Close() })
	return tb
}

func TestTableInsertAndFind(t *testing.T) {
	tb := newTempTable(t)

	r := Row{ID: 1, Username: "alice", Email: "alice@example.com"}
	if err := tb.InsertRow(r); err != nil {
		t.Fatalf("InsertRow: %v", err)
	}

	c, err := tb.Find(1)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !c.Valid() {
		t.Fatalf("Find(1): not found")
	}
	got, err := c.Row()
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	if got != r {
		t.Errorf("got %+v; want %+v", got, r)
	}
}

func TestTableInsertRejectsDuplicate(t *testing.T) {
	tb := newTempTable(t)
	r := Row{ID: 1, Username: "alice", Email: "alice@example.com"}
	if err := tb.InsertRow(r); err != nil {
		t.Fatalf("InsertRow: %v", err)
	}
	if err := tb.InsertRow(r); err != ErrDuplicateKey {
		t.Errorf("second InsertRow: got %v; want ErrDuplicateKey", err)
	}
}

func TestTableUpdateRow(t *testing.T) {
	tb := newTempTable(t)
	r := Row{ID: 1, Username: "alice", Email: "alice@example.com"}
	if err := tb.InsertRow(r); err != nil {
		t.Fatalf("InsertRow: %v", err)
	}
	r.Email = "alice@new.example.com"
	if err := tb.UpdateRow(r); err != nil {
		t.Fatalf("UpdateRow: %v", err)
	}
	c, err := tb.Find(1)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	got, err := c.Row()
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	if got.Email != "alice@new.example.com" {
		t.Errorf("Email = %q; want updated value", got.Email)
	}
}

func TestTableUpdateMissingRowFails(t *testing.T) {
	tb := newTempTable(t)
	err := tb.UpdateRow(Row{ID: 42, Username: "x", Email: "x@example.com"})
	if err != ErrNotFound {
		t.Errorf("UpdateRow missing: got %v; want ErrNotFound", err)
	}
}

func TestTableDeleteRow(t *testing.T) {
	tb := newTempTable(t)
	r := Row{ID: 1, Username: "alice", Email: "alice@example.com"}
	if err := tb.InsertRow(r); err != nil {
		t.Fatalf("InsertRow: %v", err)
	}
	found, err := tb.DeleteRow(1)
	if err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}
	if !found {
		t.Fatalf("DeleteRow(1): expected found")
	}
	c, err := tb.Find(1)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if c.Valid() {
		if k, _ := c.Key(); k == 1 {
			t.Errorf("row 1 should be gone")
		}
	}
}

func TestTableCountRows(t *testing.T) {
	tb := newTempTable(t)
	for i := uint32(1); i <= 5; i++ {
		if err := tb.InsertRow(Row{ID: i, Username: "u", Email: "u@example.com"}); err != nil {
			t.Fatalf("InsertRow(%d): %v", i, err)
		}
	}
	n, err := tb.CountRows()
	if err != nil {
		t.Fatalf("CountRows: %v", err)
	}
	if n != 5 {
		t.Errorf("CountRows = %d; want 5", n)
	}
}

func TestTableReopenRecoversFromWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users")
	tb, err := Open(path, "users", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := tb.InsertRow(Row{ID: 1, Username: "alice", Email: "a@example.com"}); err != nil {
		t.Fatalf("InsertRow: %v", err)
	}
	// Simulate a crash: close the pager's file descriptor directly
	// (the WAL's is left open), without calling Close (which would
	// checkpoint and hide the bug a missing recovery path would
	// otherwise have).
	tb.pager.File().Close()

	tb2, err := Open(path, "users", nil)
	if err != nil {
		t.Fatalf("reopen Open: %v", err)
	}
	defer tb2.Close()

	c, err := tb2.Find(1)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !c.Valid() {
		t.Fatalf("row 1 should have been recovered from the WAL")
	}
}

func TestTableOpenCreatesFileIfMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brand_new")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("precondition: path should not exist yet")
	}
	tb, err := Open(path, "brand_new", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tb.Close()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to be created: %v", err)
	}
}
