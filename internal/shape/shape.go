// Package shape implements the in-memory catalog: tables, columns, row
// layout metadata, per-table fragmentation, and the free-sector reclaim
// queue (spec §3, §4.3).
package shape

import (
	"github.com/griffi-gh/awfuldb/internal/dberr"
	"github.com/griffi-gh/awfuldb/internal/types"
)

// Column describes one table column: its stored type and whether it may
// hold a null value. Null-bitmap encoding (when Nullable is used) is
// described in SPEC_FULL.md §4.7/§9.
type Column struct {
	Typ      types.Type
	Nullable bool
}

// Table is one named, ordered sequence of typed columns plus the
// bookkeeping the row engine needs to place and count rows.
type Table struct {
	Name          string
	Columns       []Column
	ColumnMap     map[string]int
	Fragmentation []uint64
	RowCount      uint64
}

// ByteSize returns the byte size of one ROW of the table (the sum of its
// columns' encoded widths plus, when at least one column is nullable, a
// leading null bitmap), not the size of the table as a whole.
func (t *Table) ByteSize() int {
	size := 0
	nullable := 0
	for _, c := range t.Columns {
		size += c.Typ.ByteSize()
		if c.Nullable {
			nullable++
		}
	}
	return bitmapBytes(nullable) + size
}

// BitmapBytes returns the number of leading null-bitmap bytes this table's
// rows carry, given its current column set.
func (t *Table) BitmapBytes() int {
	nullable := 0
	for _, c := range t.Columns {
		if c.Nullable {
			nullable++
		}
	}
	return bitmapBytes(nullable)
}

func bitmapBytes(nullableCount int) int {
	return (nullableCount + 7) / 8
}

// Shape is the persisted catalog: the free-sector reclaim queue, the
// table name lookup, and the ordered table list itself. Table ordering is
// append-only and stable, which is what makes Pointer(tableIndex) values
// stable across serialization (spec §4.3).
type Shape struct {
	Reclaim  []uint64
	TableMap map[string]int
	Tables   []Table
}

// New returns an empty Shape, as created on first open of a database.
func New() *Shape {
	return &Shape{TableMap: map[string]int{}}
}

// InsertTable appends table under name, recording its positional index in
// TableMap. It is the caller's responsibility to have already checked
// that name is not already present (spec §4.3: re-inserting an existing
// name is a caller error).
func (s *Shape) InsertTable(name string, table Table) {
	s.TableMap[name] = len(s.Tables)
	s.Tables = append(s.Tables, table)
}

// GetTable returns the table registered under name, or an error.
func (s *Shape) GetTable(name string) (*Table, error) {
	idx, ok := s.TableMap[name]
	if !ok {
		return nil, dberr.New(dberr.TableNotFound, "shape: table %q not found", name)
	}
	return &s.Tables[idx], nil
}

// GetTableMut is an alias for GetTable: Go has no separate mutable/
// immutable borrow distinction, but the name is kept so call sites read
// the same as the spec's vocabulary for the two access patterns.
func (s *Shape) GetTableMut(name string) (*Table, error) {
	return s.GetTable(name)
}

// PopReclaim removes and returns the front of the FIFO reclaim queue.
func (s *Shape) PopReclaim() (uint64, bool) {
	if len(s.Reclaim) == 0 {
		return 0, false
	}
	sector := s.Reclaim[0]
	s.Reclaim = s.Reclaim[1:]
	return sector, true
}

// PushReclaim appends sector to the back of the FIFO reclaim queue.
func (s *Shape) PushReclaim(sector uint64) {
	s.Reclaim = append(s.Reclaim, sector)
}
