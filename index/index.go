// Package index implements in-memory secondary indexes: sorted
// vectors accelerating equality lookup on a non-key column. Indexes
// are rebuilt from the primary store on CREATE INDEX and are never
// persisted, per the documented behavior in the design notes.
package index

import (
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
)

// ErrIndexExists is returned by Manager.Create for a duplicate
// (table, column) pair.
var ErrIndexExists = errors.New("index: index already exists")

// ErrManagerFull is returned by Manager.Create once MaxIndexes is
// reached.
var ErrManagerFull = errors.New("index: index manager full")

// ErrNotIndexable is returned by Manager.Create for a column other
// than username/email, the only columns recognized as indexable under
// the fixed row layout.
var ErrNotIndexable = errors.New("index: column is not indexable")

const initialCapacity = 100

// entry is one (key, primary_key) pair.
type entry struct {
	key       string
	primaryKey uint32
}

// SecondaryIndex is a sorted vector of (key, primary_key) entries for
// one table column, supporting duplicate keys kept contiguous.
type SecondaryIndex struct {
	Table  string
	Column string

	entries  []entry
	capacity int
}

func newSecondaryIndex(table, column string) *SecondaryIndex {
	return &SecondaryIndex{Table: table, Column: column, capacity: initialCapacity}
}

// Len returns the number of entries currently stored.
func (idx *SecondaryIndex) Len() int { return len(idx.entries) }

// Insert binary-positions key among existing entries and shifts to
// maintain sorted order, keeping duplicate keys contiguous. Doubles
// capacity (a bookkeeping figure only; Go slices grow themselves) once
// Len reaches the tracked capacity, mirroring the original's
// realloc-on-overflow behavior.
func (idx *SecondaryIndex) Insert(key string, primaryKey uint32) {
	if len(idx.entries) >= idx.capacity {
		idx.capacity *= 2
	}
	pos := sort.Search(len(idx.entries), func(i int) bool { return idx.entries[i].key >= key })
	idx.entries = append(idx.entries, entry{})
	copy(idx.entries[pos+1:], idx.entries[pos:])
	idx.entries[pos] = entry{key: key, primaryKey: primaryKey}
}

// Lookup binary-searches for key, then widens the match window to
// cover all duplicates, returning their primary keys in index order.
func (idx *SecondaryIndex) Lookup(key string) []uint32 {
	n := len(idx.entries)
	pos := sort.Search(n, func(i int) bool { return idx.entries[i].key >= key })
	if pos >= n || idx.entries[pos].key != key {
		return nil
	}
	start, end := pos, pos
	for start > 0 && idx.entries[start-1].key == key {
		start--
	}
	for end < n-1 && idx.entries[end+1].key == key {
		end++
	}
	out := make([]uint32, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, idx.entries[i].primaryKey)
	}
	return out
}

// Print writes a human-readable dump of every entry, in the style of
// the original secondary_index_print.
func (idx *SecondaryIndex) Print(w io.Writer) {
	fmt.Fprintf(w, "\nIndex on %s.%s (%d entries):\n", idx.Table, idx.Column, len(idx.entries))
	for _, e := range idx.entries {
		fmt.Fprintf(w, "  '%s' -> id=%d\n", e.key, e.primaryKey)
	}
	fmt.Fprintln(w)
}

// Delete removes the entry matching both key and primaryKey, shifting
// subsequent entries left. A linear scan, matching the original
// implementation's O(n) delete.
func (idx *SecondaryIndex) Delete(key string, primaryKey uint32) {
	for i, e := range idx.entries {
		if e.key == key && e.primaryKey == primaryKey {
			idx.entries = append(idx.entries[:i], idx.entries[i+1:]...)
			return
		}
	}
}
