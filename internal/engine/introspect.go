package engine

import (
	"github.com/griffi-gh/awfuldb/internal/codec"
	"github.com/griffi-gh/awfuldb/internal/row"
)

// TableNames returns every table currently in the catalog, in declaration
// order. Used by internal/fuseview to list the root directory.
func (d *Database) TableNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, len(d.st.Shape.Tables))
	for name, idx := range d.st.Shape.TableMap {
		names[idx] = name
	}
	return names
}

// RowCount returns the current row count of table name.
func (d *Database) RowCount(name string) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	table, err := d.st.Shape.GetTable(name)
	if err != nil {
		return 0, err
	}
	return table.RowCount, nil
}

// ColumnNames returns the declared column names of table name, in
// declaration order.
func (d *Database) ColumnNames(name string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	table, err := d.st.Shape.GetTable(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(table.Columns))
	for colName, idx := range table.ColumnMap {
		out[idx] = colName
	}
	return out, nil
}

// ReadRow projects every column of row rowID of table name, by column
// name, for debug/read-only consumers such as internal/fuseview.
func (d *Database) ReadRow(name string, rowID uint64) (map[string]codec.Value, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	table, err := d.st.Shape.GetTable(name)
	if err != nil {
		return nil, err
	}
	out := make(map[string]codec.Value, len(table.Columns))
	for colName, idx := range table.ColumnMap {
		colBytes, err := row.ReadColumn(d.st, name, rowID, idx)
		if err != nil {
			return nil, err
		}
		val, err := codec.Decode(colBytes, table.Columns[idx].Typ)
		if err != nil {
			return nil, err
		}
		out[colName] = val
	}
	return out, nil
}
