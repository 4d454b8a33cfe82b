package engine

import (
	"github.com/griffi-gh/awfuldb/internal/codec"
	"github.com/griffi-gh/awfuldb/internal/dberr"
	"github.com/griffi-gh/awfuldb/internal/row"
	"github.com/griffi-gh/awfuldb/internal/shape"
	"github.com/griffi-gh/awfuldb/internal/storage"
	"github.com/griffi-gh/awfuldb/internal/types"
)

// resolveType turns a wire TypeSpec into a concrete types.Type, resolving
// an unresolved pointer-by-name against the shape's table_map (spec
// §4.6.1). Failure to resolve is *unresolved type*.
func resolveType(spec TypeSpec, sh *shape.Shape) (types.Type, error) {
	if spec.hasPointer {
		idx, ok := sh.TableMap[spec.pointerName]
		if !ok {
			return types.Type{}, dberr.New(dberr.UnresolvedType, "engine: pointer target table %q not found", spec.pointerName)
		}
		return types.Pointer(idx), nil
	}
	if spec.hasText {
		return types.Text(spec.text), nil
	}
	if spec.hasBlob {
		return types.Blob(spec.blob), nil
	}
	typ, ok := scalarTypes[spec.scalar]
	if !ok {
		return types.Type{}, dberr.New(dberr.UnresolvedType, "engine: unknown type tag %q", spec.scalar)
	}
	return typ, nil
}

// performTableCreate implements spec §4.6.1.
func (d *Database) performTableCreate(op *TableCreateOp) error {
	sh := d.st.Shape
	if _, ok := sh.TableMap[op.Name]; ok {
		return dberr.New(dberr.TableAlreadyExists, "engine: table %q already exists", op.Name)
	}

	columns := make([]shape.Column, len(op.Columns))
	columnMap := make(map[string]int, len(op.Columns))
	for i, cs := range op.Columns {
		typ, err := resolveType(cs.Type, sh)
		if err != nil {
			return err
		}
		columns[i] = shape.Column{Typ: typ, Nullable: cs.Nullable}
		columnMap[cs.Name] = i
	}

	table := shape.Table{
		Name:          op.Name,
		Columns:       columns,
		ColumnMap:     columnMap,
		Fragmentation: nil,
		RowCount:      0,
	}
	if table.ByteSize() > storage.SectorSize {
		return dberr.New(dberr.RowTooLarge, "engine: table %q row size %d exceeds sector size %d", op.Name, table.ByteSize(), storage.SectorSize)
	}

	sh.InsertTable(op.Name, table)
	d.st.MarkShapeDirty()
	return nil
}

// resolvedRow is one column slot resolved from a wire Row: either a value
// to encode, or a flag that the column was omitted (only valid when the
// column is nullable, checked by the caller).
type resolvedRow struct {
	value  codec.Value
	isNull bool
}

// resolveRow resolves a wire Row (positional or named) against a table's
// declared column order (spec §4.6.2 / SPEC_FULL.md §4.7's resolution of
// DbRow::AsNamed).
func resolveRow(rowValues Row, table *shape.Table) ([]resolvedRow, error) {
	out := make([]resolvedRow, len(table.Columns))

	if !rowValues.isNamed {
		if len(rowValues.Positional) != len(table.Columns) {
			return nil, dberr.New(dberr.RowSizeMismatch, "engine: row has %d values, table %q has %d columns", len(rowValues.Positional), table.Name, len(table.Columns))
		}
		for i, v := range rowValues.Positional {
			out[i] = resolvedRow{value: v}
		}
		return out, nil
	}

	for name := range rowValues.Named {
		if _, ok := table.ColumnMap[name]; !ok {
			return nil, dberr.New(dberr.ColumnNotFound, "engine: named row references unknown column %q of table %q", name, table.Name)
		}
	}
	for name, idx := range table.ColumnMap {
		val, ok := rowValues.Named[name]
		if !ok {
			if !table.Columns[idx].Nullable {
				return nil, dberr.New(dberr.ColumnMissing, "engine: named row is missing required column %q of table %q", name, table.Name)
			}
			out[idx] = resolvedRow{isNull: true}
			continue
		}
		out[idx] = resolvedRow{value: val}
	}
	return out, nil
}

// performTableInsert implements spec §4.6.2.
func (d *Database) performTableInsert(op *TableInsertOp) error {
	table, err := d.st.Shape.GetTableMut(op.Name)
	if err != nil {
		return err
	}

	resolved, err := resolveRow(op.Columns, table)
	if err != nil {
		return err
	}

	buf := make([]byte, table.ByteSize())
	position := table.BitmapBytes()
	for i, col := range table.Columns {
		if resolved[i].isNull {
			row.SetNullBit(table, buf, i, true)
			position += col.Typ.ByteSize()
			continue
		}
		encoded, err := codec.Encode(resolved[i].value, col.Typ)
		if err != nil {
			return err
		}
		copy(buf[position:position+len(encoded)], encoded)
		position += len(encoded)
	}

	return row.Insert(d.st, op.Name, buf)
}

// performTableQuery implements spec §4.6.3. Pointer-path keys are
// explicitly left unimplemented (spec allows this).
func (d *Database) performTableQuery(op *TableQueryOp) (Result, error) {
	table, err := d.st.Shape.GetTable(op.Name)
	if err != nil {
		return Result{}, err
	}

	values := make([]codec.Value, len(op.Columns))
	for i, key := range op.Columns {
		if key.isPath {
			return Result{}, dberr.New(dberr.NotImplemented, "engine: pointer-following query keys are not implemented")
		}
		colIdx, ok := table.ColumnMap[key.Simple]
		if !ok {
			return Result{}, dberr.New(dberr.ColumnNotFound, "engine: column %q not found in table %q", key.Simple, op.Name)
		}
		isNull, err := row.IsNull(d.st, op.Name, op.RowID, colIdx)
		if err != nil {
			return Result{}, err
		}
		if isNull {
			values[i] = codec.Null()
			continue
		}
		colBytes, err := row.ReadColumn(d.st, op.Name, op.RowID, colIdx)
		if err != nil {
			return Result{}, err
		}
		val, err := codec.Decode(colBytes, table.Columns[colIdx].Typ)
		if err != nil {
			return Result{}, err
		}
		values[i] = val
	}

	return QueryResult([][]codec.Value{values}), nil
}
