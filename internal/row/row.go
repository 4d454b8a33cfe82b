// Package row implements the fragmentation-aware row layout translator
// (spec §4.5): given a table and a row-sized byte buffer, place it at
// (sector, offset), or read back one column of one already-placed row.
// It performs no type validation; internal/engine wraps it with
// internal/codec for that.
package row

import (
	"github.com/griffi-gh/awfuldb/internal/dberr"
	"github.com/griffi-gh/awfuldb/internal/shape"
	"github.com/griffi-gh/awfuldb/internal/storage"
)

// EntriesPerFragment returns how many rows of rowSize bytes fit in one
// sector.
func EntriesPerFragment(rowSize int) int {
	return storage.SectorSize / rowSize
}

// locate computes the fragment index, sector, and in-sector byte offset
// of row r of a table with the given row size and fragmentation list.
func locate(rowSize int, fragmentation []uint64, r uint64) (fragmentIndex int, sector uint64, offset int, err error) {
	perFragment := EntriesPerFragment(rowSize)
	if perFragment == 0 {
		return 0, 0, 0, dberr.New(dberr.RowTooLarge, "row: row size %d exceeds sector size", rowSize)
	}
	f := r / uint64(perFragment)
	if int(f) >= len(fragmentation) {
		return 0, 0, 0, dberr.New(dberr.UnallocatedSector, "row: row %d has no fragment (only %d allocated)", r, len(fragmentation))
	}
	sec := fragmentation[f]
	off := rowSize * int(r-f*uint64(perFragment))
	return int(f), sec, off, nil
}

// Insert writes rowBytes as a new row of table name, allocating a fresh
// fragment sector when the current row_count has outgrown the table's
// existing fragmentation.
func Insert(st *storage.Storage, name string, rowBytes []byte) error {
	table, err := st.Shape.GetTableMut(name)
	if err != nil {
		return err
	}
	rowSize := table.ByteSize()
	if len(rowBytes) != rowSize {
		return dberr.New(dberr.RowSizeMismatch, "row: buffer of %d bytes does not match row size %d for table %q", len(rowBytes), rowSize, name)
	}

	perFragment := EntriesPerFragment(rowSize)
	if perFragment == 0 {
		return dberr.New(dberr.RowTooLarge, "row: row size %d exceeds sector size %d", rowSize, storage.SectorSize)
	}
	f := table.RowCount / uint64(perFragment)
	offset := rowSize * int(table.RowCount-f*uint64(perFragment))

	if int(f) >= len(table.Fragmentation) {
		sec := st.AllocateSector()
		table.Fragmentation = append(table.Fragmentation, sec)
	}
	sector := table.Fragmentation[f]

	table.RowCount++

	if err := st.WriteSector(sector, rowBytes, offset); err != nil {
		return err
	}
	st.MarkShapeDirty()
	return nil
}

// ReadColumn returns the raw encoded bytes of column columnIndex of row r
// of table name.
func ReadColumn(st *storage.Storage, name string, r uint64, columnIndex int) ([]byte, error) {
	table, err := st.Shape.GetTable(name)
	if err != nil {
		return nil, err
	}
	if columnIndex < 0 || columnIndex >= len(table.Columns) {
		return nil, dberr.New(dberr.ColumnNotFound, "row: column index %d out of range for table %q", columnIndex, name)
	}

	rowSize := table.ByteSize()
	_, sector, rowOffset, err := locate(rowSize, table.Fragmentation, r)
	if err != nil {
		return nil, err
	}

	columnOffset := table.BitmapBytes()
	for i := 0; i < columnIndex; i++ {
		columnOffset += table.Columns[i].Typ.ByteSize()
	}

	sectorBuf, err := st.ReadSector(sector)
	if err != nil {
		return nil, err
	}
	start := rowOffset + columnOffset
	size := table.Columns[columnIndex].Typ.ByteSize()
	return sectorBuf[start : start+size], nil
}

// IsNull reports whether column columnIndex of row r is flagged null in
// the row's leading null bitmap. It is only meaningful when the column is
// nullable; non-nullable columns never consult the bitmap.
func IsNull(st *storage.Storage, name string, r uint64, columnIndex int) (bool, error) {
	table, err := st.Shape.GetTable(name)
	if err != nil {
		return false, err
	}
	if !table.Columns[columnIndex].Nullable {
		return false, nil
	}
	nullableIndex := 0
	for i := 0; i < columnIndex; i++ {
		if table.Columns[i].Nullable {
			nullableIndex++
		}
	}

	rowSize := table.ByteSize()
	_, sector, rowOffset, err := locate(rowSize, table.Fragmentation, r)
	if err != nil {
		return false, err
	}
	sectorBuf, err := st.ReadSector(sector)
	if err != nil {
		return false, err
	}
	byteIdx := nullableIndex / 8
	bitIdx := uint(nullableIndex % 8)
	return sectorBuf[rowOffset+byteIdx]&(1<<bitIdx) != 0, nil
}

// SetNullBit sets or clears the null bit for a nullable column within a
// row buffer being assembled for insertion (bitmap occupies the leading
// table.BitmapBytes() bytes of the row, preceding all column data).
func SetNullBit(table *shape.Table, rowBuffer []byte, columnIndex int, isNull bool) {
	nullableIndex := 0
	for i := 0; i < columnIndex; i++ {
		if table.Columns[i].Nullable {
			nullableIndex++
		}
	}
	byteIdx := nullableIndex / 8
	bitIdx := uint(nullableIndex % 8)
	if isNull {
		rowBuffer[byteIdx] |= 1 << bitIdx
	} else {
		rowBuffer[byteIdx] &^= 1 << bitIdx
	}
}
