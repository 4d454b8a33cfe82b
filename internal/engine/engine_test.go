package engine

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/griffi-gh/awfuldb/internal/codec"
	"github.com/griffi-gh/awfuldb/internal/dberr"
)

func tempFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "awfuldb-*.db")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func mustOp(t *testing.T, jsonBody string) Operation {
	t.Helper()
	var op Operation
	if err := json.Unmarshal([]byte(jsonBody), &op); err != nil {
		t.Fatalf("unmarshaling operation %s: %v", jsonBody, err)
	}
	return op
}

// TestCreateWriteSyncReopen covers the write/sync/re-open round trip: data
// inserted before Sync is visible after closing and reopening the file.
func TestCreateWriteSyncReopen(t *testing.T) {
	f := tempFile(t)
	db, err := Create(f)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ops := []Operation{
		mustOp(t, `{"type":"TableCreate","name":"items","columns":[
			{"name":"id","type":"Unsigned64"},
			{"name":"label","type":{"Text":16}}
		]}`),
		mustOp(t, `{"type":"TableInsert","name":"items","columns":[1,"first"]}`),
		mustOp(t, `{"type":"TableInsert","name":"items","columns":[2,"second"]}`),
	}
	if _, err := db.PerformBatch(ops); err != nil {
		t.Fatalf("PerformBatch: %v", err)
	}
	if err := db.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f2, err := os.OpenFile(f.Name(), os.O_RDWR, 0644)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { f2.Close() })
	db2, err := Open(f2)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	results, err := db2.PerformBatch([]Operation{
		mustOp(t, `{"type":"TableQuery","name":"items","columns":["id","label"],"_rowid":1}`),
	})
	if err != nil {
		t.Fatalf("PerformBatch query: %v", err)
	}
	got := (*results[0].Rows)[0]
	want := []codec.Value{codec.Integer(2), codec.String("second")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("queried row mismatch (-want +got):\n%s", diff)
	}
}

func TestRowTooLargeRejectsTableCreate(t *testing.T) {
	db, err := Create(tempFile(t))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	op := mustOp(t, `{"type":"TableCreate","name":"huge","columns":[{"name":"blob","type":{"Blob":2000}}]}`)
	_, err = db.PerformBatch([]Operation{op})
	if !dberr.Is(err, dberr.RowTooLarge) {
		t.Fatalf("expected RowTooLarge, got %v", err)
	}
}

func TestTableAlreadyExists(t *testing.T) {
	db, err := Create(tempFile(t))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	create := mustOp(t, `{"type":"TableCreate","name":"t","columns":[{"name":"id","type":"Unsigned8"}]}`)
	if _, err := db.PerformBatch([]Operation{create}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err = db.PerformBatch([]Operation{create})
	if !dberr.Is(err, dberr.TableAlreadyExists) {
		t.Fatalf("expected TableAlreadyExists, got %v", err)
	}
}

func TestNamedInsertWithNullableColumn(t *testing.T) {
	db, err := Create(tempFile(t))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ops := []Operation{
		mustOp(t, `{"type":"TableCreate","name":"people","columns":[
			{"name":"id","type":"Unsigned32"},
			{"name":"nickname","type":{"Text":8},"nullable":true}
		]}`),
		mustOp(t, `{"type":"TableInsert","name":"people","columns":{"id":7}}`),
	}
	if _, err := db.PerformBatch(ops); err != nil {
		t.Fatalf("PerformBatch: %v", err)
	}

	results, err := db.PerformBatch([]Operation{
		mustOp(t, `{"type":"TableQuery","name":"people","columns":["id","nickname"],"_rowid":0}`),
	})
	if err != nil {
		t.Fatalf("PerformBatch query: %v", err)
	}
	got := (*results[0].Rows)[0]
	want := []codec.Value{codec.Integer(7), codec.Null()}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestNamedInsertMissingRequiredColumn(t *testing.T) {
	db, err := Create(tempFile(t))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ops := []Operation{
		mustOp(t, `{"type":"TableCreate","name":"people","columns":[{"name":"id","type":"Unsigned32"}]}`),
	}
	if _, err := db.PerformBatch(ops); err != nil {
		t.Fatalf("PerformBatch: %v", err)
	}
	_, err = db.PerformBatch([]Operation{mustOp(t, `{"type":"TableInsert","name":"people","columns":{}}`)})
	if !dberr.Is(err, dberr.ColumnMissing) {
		t.Fatalf("expected ColumnMissing, got %v", err)
	}
}

func TestUnresolvedPointerType(t *testing.T) {
	db, err := Create(tempFile(t))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	op := mustOp(t, `{"type":"TableCreate","name":"orders","columns":[{"name":"customer","type":{"Pointer":"customers"}}]}`)
	_, err = db.PerformBatch([]Operation{op})
	if !dberr.Is(err, dberr.UnresolvedType) {
		t.Fatalf("expected UnresolvedType, got %v", err)
	}
}

func TestPointerFollowingQueryNotImplemented(t *testing.T) {
	db, err := Create(tempFile(t))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ops := []Operation{
		mustOp(t, `{"type":"TableCreate","name":"customers","columns":[{"name":"id","type":"Unsigned32"}]}`),
		mustOp(t, `{"type":"TableCreate","name":"orders","columns":[{"name":"customer","type":{"Pointer":"customers"}}]}`),
		mustOp(t, `{"type":"TableInsert","name":"customers","columns":[1]}`),
		mustOp(t, `{"type":"TableInsert","name":"orders","columns":[0]}`),
	}
	if _, err := db.PerformBatch(ops); err != nil {
		t.Fatalf("PerformBatch: %v", err)
	}

	query := mustOp(t, `{"type":"TableQuery","name":"orders","columns":[["customer","id"]],"_rowid":0}`)
	_, err = db.PerformBatch([]Operation{query})
	if !dberr.Is(err, dberr.NotImplemented) {
		t.Fatalf("expected NotImplemented for pointer-path query, got %v", err)
	}
}
