package storage

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/griffi-gh/awfuldb/internal/dberr"
	"github.com/griffi-gh/awfuldb/internal/shape"
	"github.com/griffi-gh/awfuldb/internal/types"
)

// Shape persistence uses a small length-prefixed little-endian binary
// format, not the fixed-width layout Header uses, since the shape grows
// with every new table (spec §4.4's write_shape relocation algorithm
// exists precisely because this encoding's size is not bounded in
// advance). table_map and column_map are not persisted: both are
// deterministic functions of table/column declaration order, so decode
// rebuilds them instead of risking them drifting out of sync with Tables.

type typeTag uint8

const (
	tagUnsigned8 typeTag = iota
	tagUnsigned16
	tagUnsigned32
	tagUnsigned64
	tagSigned8
	tagSigned16
	tagSigned32
	tagSigned64
	tagFloat32
	tagFloat64
	tagText
	tagBlob
	tagPointer
)

func writeUint64(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func encodeType(buf *bytes.Buffer, t types.Type) {
	switch t.Kind {
	case types.KindUnsigned8:
		buf.WriteByte(byte(tagUnsigned8))
	case types.KindUnsigned16:
		buf.WriteByte(byte(tagUnsigned16))
	case types.KindUnsigned32:
		buf.WriteByte(byte(tagUnsigned32))
	case types.KindUnsigned64:
		buf.WriteByte(byte(tagUnsigned64))
	case types.KindSigned8:
		buf.WriteByte(byte(tagSigned8))
	case types.KindSigned16:
		buf.WriteByte(byte(tagSigned16))
	case types.KindSigned32:
		buf.WriteByte(byte(tagSigned32))
	case types.KindSigned64:
		buf.WriteByte(byte(tagSigned64))
	case types.KindFloat32:
		buf.WriteByte(byte(tagFloat32))
	case types.KindFloat64:
		buf.WriteByte(byte(tagFloat64))
	case types.KindText:
		buf.WriteByte(byte(tagText))
		writeUint32(buf, uint32(t.Size))
	case types.KindBlob:
		buf.WriteByte(byte(tagBlob))
		writeUint32(buf, uint32(t.Size))
	case types.KindPointer:
		buf.WriteByte(byte(tagPointer))
		writeUint32(buf, uint32(t.TargetTable))
	}
}

func decodeType(r *bytes.Reader) (types.Type, error) {
	tagByte, err := r.ReadByte()
	if err != nil {
		return types.Type{}, dberr.New(dberr.Decode, "storage: truncated type tag: %v", err)
	}
	switch typeTag(tagByte) {
	case tagUnsigned8:
		return types.Unsigned(types.Int8), nil
	case tagUnsigned16:
		return types.Unsigned(types.Int16), nil
	case tagUnsigned32:
		return types.Unsigned(types.Int32), nil
	case tagUnsigned64:
		return types.Unsigned(types.Int64), nil
	case tagSigned8:
		return types.Signed(types.Int8), nil
	case tagSigned16:
		return types.Signed(types.Int16), nil
	case tagSigned32:
		return types.Signed(types.Int32), nil
	case tagSigned64:
		return types.Signed(types.Int64), nil
	case tagFloat32:
		return types.Float(types.Float32Size), nil
	case tagFloat64:
		return types.Float(types.Float64Size), nil
	case tagText:
		size, err := readUint32(r)
		if err != nil {
			return types.Type{}, err
		}
		return types.Text(int(size)), nil
	case tagBlob:
		size, err := readUint32(r)
		if err != nil {
			return types.Type{}, err
		}
		return types.Blob(int(size)), nil
	case tagPointer:
		target, err := readUint32(r)
		if err != nil {
			return types.Type{}, err
		}
		return types.Pointer(int(target)), nil
	default:
		return types.Type{}, dberr.New(dberr.Decode, "storage: unknown type tag %d", tagByte)
	}
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var tmp [8]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, dberr.New(dberr.Decode, "storage: truncated uint64: %v", err)
	}
	return binary.LittleEndian.Uint64(tmp[:]), nil
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var tmp [4]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, dberr.New(dberr.Decode, "storage: truncated uint32: %v", err)
	}
	return binary.LittleEndian.Uint32(tmp[:]), nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", dberr.New(dberr.Decode, "storage: truncated string: %v", err)
	}
	return string(b), nil
}

// EncodeShape renders s into its persisted byte form.
func EncodeShape(s *shape.Shape) []byte {
	var buf bytes.Buffer

	writeUint32(&buf, uint32(len(s.Reclaim)))
	for _, sector := range s.Reclaim {
		writeUint64(&buf, sector)
	}

	writeUint32(&buf, uint32(len(s.Tables)))
	for _, table := range s.Tables {
		writeString(&buf, table.Name)

		writeUint32(&buf, uint32(len(table.Columns)))
		for i, col := range table.Columns {
			writeString(&buf, columnNameAt(table, i))
			encodeType(&buf, col.Typ)
			if col.Nullable {
				buf.WriteByte(1)
			} else {
				buf.WriteByte(0)
			}
		}

		writeUint32(&buf, uint32(len(table.Fragmentation)))
		for _, sector := range table.Fragmentation {
			writeUint64(&buf, sector)
		}

		writeUint64(&buf, table.RowCount)
	}

	return buf.Bytes()
}

// columnNameAt recovers a column's declared name from the table's
// ColumnMap (index -> name is the inverse of the stored name -> index
// map); this keeps the persisted format from duplicating the map itself
// while still round-tripping names exactly.
func columnNameAt(table shape.Table, index int) string {
	for name, idx := range table.ColumnMap {
		if idx == index {
			return name
		}
	}
	return ""
}

// DecodeShape parses a Shape from its persisted byte form, rebuilding
// TableMap and each table's ColumnMap from declaration order.
func DecodeShape(data []byte) (*shape.Shape, error) {
	r := bytes.NewReader(data)

	reclaimLen, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	reclaim := make([]uint64, reclaimLen)
	for i := range reclaim {
		v, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		reclaim[i] = v
	}

	tableCount, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	tables := make([]shape.Table, tableCount)
	tableMap := make(map[string]int, tableCount)
	for ti := range tables {
		name, err := readString(r)
		if err != nil {
			return nil, err
		}

		colCount, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		columns := make([]shape.Column, colCount)
		columnMap := make(map[string]int, colCount)
		for ci := range columns {
			colName, err := readString(r)
			if err != nil {
				return nil, err
			}
			typ, err := decodeType(r)
			if err != nil {
				return nil, err
			}
			nullableByte, err := r.ReadByte()
			if err != nil {
				return nil, dberr.New(dberr.Decode, "storage: truncated nullable flag: %v", err)
			}
			columns[ci] = shape.Column{Typ: typ, Nullable: nullableByte != 0}
			columnMap[colName] = ci
		}

		fragLen, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		fragmentation := make([]uint64, fragLen)
		for i := range fragmentation {
			v, err := readUint64(r)
			if err != nil {
				return nil, err
			}
			fragmentation[i] = v
		}

		rowCount, err := readUint64(r)
		if err != nil {
			return nil, err
		}

		tables[ti] = shape.Table{
			Name:          name,
			Columns:       columns,
			ColumnMap:     columnMap,
			Fragmentation: fragmentation,
			RowCount:      rowCount,
		}
		tableMap[name] = ti
	}

	return &shape.Shape{Reclaim: reclaim, TableMap: tableMap, Tables: tables}, nil
}
