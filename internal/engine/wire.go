// Wire types: the JSON request/response shapes of spec §6, as
// encoding/json-tagged Go structs. Operation mimics serde's
// #[serde(tag = "type")] dispatch by sniffing a "type" discriminator
// field; Row and QueryKey mimic #[serde(untagged)] the same way
// internal/codec.Value does.
package engine

import (
	"encoding/json"
	"fmt"

	"github.com/griffi-gh/awfuldb/internal/codec"
	"github.com/griffi-gh/awfuldb/internal/types"
)

// TypeSpec is a column's declared type as it arrives over the wire: either
// a bare scalar tag ("Unsigned8", "Float64", ...), a sized variant
// ({"Text": 11}, {"Blob": 20}), or an unresolved pointer naming a target
// table by name ({"Pointer": "customers"}) that the executor resolves to
// a types.Type at TableCreate time (spec §4.1).
type TypeSpec struct {
	scalar       string
	text, blob   int
	hasText      bool
	hasBlob      bool
	pointerName  string
	hasPointer   bool
}

func (ts *TypeSpec) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		ts.scalar = tag
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("engine: type spec %s matches neither a tag nor an object", data)
	}
	if raw, ok := obj["Text"]; ok {
		var n int
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("engine: Text size: %w", err)
		}
		ts.hasText, ts.text = true, n
		return nil
	}
	if raw, ok := obj["Blob"]; ok {
		var n int
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("engine: Blob size: %w", err)
		}
		ts.hasBlob, ts.blob = true, n
		return nil
	}
	if raw, ok := obj["Pointer"]; ok {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return fmt.Errorf("engine: Pointer target: %w", err)
		}
		ts.hasPointer, ts.pointerName = true, name
		return nil
	}
	return fmt.Errorf("engine: type spec object %s has no recognized key", data)
}

// scalarTypes maps every tagged-but-unsized Type variant's wire name to
// its types.Type value.
var scalarTypes = map[string]types.Type{
	"Unsigned8":  types.Unsigned(types.Int8),
	"Unsigned16": types.Unsigned(types.Int16),
	"Unsigned32": types.Unsigned(types.Int32),
	"Unsigned64": types.Unsigned(types.Int64),
	"Signed8":    types.Signed(types.Int8),
	"Signed16":   types.Signed(types.Int16),
	"Signed32":   types.Signed(types.Int32),
	"Signed64":   types.Signed(types.Int64),
	"Float32":    types.Float(types.Float32Size),
	"Float64":    types.Float(types.Float64Size),
}

// ColumnSpec is one column declaration in a TableCreate request.
type ColumnSpec struct {
	Name     string   `json:"name"`
	Type     TypeSpec `json:"type"`
	Nullable bool     `json:"nullable,omitempty"`
}

// TableCreateOp creates a new table with the given columns.
type TableCreateOp struct {
	Name    string       `json:"name"`
	Columns []ColumnSpec `json:"columns"`
}

// Row is one TableInsert request's column values, in either the
// positional (ordered array) or named (object) shape (spec §4.6.2).
type Row struct {
	Positional []codec.Value
	Named      map[string]codec.Value
	isNamed    bool
}

func (r *Row) UnmarshalJSON(data []byte) error {
	var positional []codec.Value
	if err := json.Unmarshal(data, &positional); err == nil {
		r.Positional = positional
		return nil
	}
	var named map[string]codec.Value
	if err := json.Unmarshal(data, &named); err != nil {
		return fmt.Errorf("engine: row %s matches neither positional nor named shape", data)
	}
	r.Named = named
	r.isNamed = true
	return nil
}

// TableInsertOp inserts one row into an existing table.
type TableInsertOp struct {
	Name    string `json:"name"`
	Columns Row    `json:"columns"`
}

// QueryKey selects one output column of a TableQuery: Simple names a
// column directly, Path is a sequence of column names to follow through
// pointer columns (spec §4.6.3; following is not implemented — see
// performTableQuery).
type QueryKey struct {
	Simple  string
	Path    []string
	isPath  bool
}

func (k *QueryKey) UnmarshalJSON(data []byte) error {
	var simple string
	if err := json.Unmarshal(data, &simple); err == nil {
		k.Simple = simple
		return nil
	}
	var path []string
	if err := json.Unmarshal(data, &path); err != nil {
		return fmt.Errorf("engine: query key %s matches neither a column name nor a path", data)
	}
	k.Path = path
	k.isPath = true
	return nil
}

// TableQueryOp fetches one row (identified by RowID) from table Name,
// projecting the keys listed in Columns.
type TableQueryOp struct {
	Name    string     `json:"name"`
	Columns []QueryKey `json:"columns"`
	RowID   uint64     `json:"_rowid"`
}

// Operation is one entry in a request batch, dispatched on its "type"
// discriminator field.
type Operation struct {
	Type          string
	TableCreate   *TableCreateOp
	TableInsert   *TableInsertOp
	TableQuery    *TableQueryOp
}

func (op *Operation) UnmarshalJSON(data []byte) error {
	var disc struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &disc); err != nil {
		return fmt.Errorf("engine: operation %s has no \"type\" field: %w", data, err)
	}
	op.Type = disc.Type
	switch disc.Type {
	case "TableCreate":
		var v TableCreateOp
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		op.TableCreate = &v
	case "TableInsert":
		var v TableInsertOp
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		op.TableInsert = &v
	case "TableQuery":
		var v TableQueryOp
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		op.TableQuery = &v
	default:
		return fmt.Errorf("engine: unknown operation type %q", disc.Type)
	}
	return nil
}

// Result is one entry in a response batch: either NoResult, or the rows
// produced by a TableQuery.
type Result struct {
	Rows *[][]codec.Value
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Rows == nil {
		return json.Marshal("NoResult")
	}
	return json.Marshal(struct {
		TableQuery [][]codec.Value `json:"TableQuery"`
	}{TableQuery: *r.Rows})
}

// NoResult is the Result of TableCreate and TableInsert.
func NoResult() Result { return Result{} }

// QueryResult wraps the rows returned by a TableQuery.
func QueryResult(rows [][]codec.Value) Result {
	return Result{Rows: &rows}
}
