package storage

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/griffi-gh/awfuldb/internal/shape"
	"github.com/griffi-gh/awfuldb/internal/types"
)

func TestEncodeDecodeShapeRoundTrip(t *testing.T) {
	s := shape.New()
	s.PushReclaim(4)
	s.PushReclaim(9)
	s.InsertTable("customers", shape.Table{
		Name: "customers",
		Columns: []shape.Column{
			{Typ: types.Unsigned(types.Int64)},
			{Typ: types.Text(12), Nullable: true},
		},
		ColumnMap:     map[string]int{"id": 0, "name": 1},
		Fragmentation: []uint64{2, 3},
		RowCount:      5,
	})
	s.InsertTable("orders", shape.Table{
		Name: "orders",
		Columns: []shape.Column{
			{Typ: types.Pointer(0)},
			{Typ: types.Blob(16)},
		},
		ColumnMap: map[string]int{"customer": 0, "payload": 1},
	})

	decoded, err := DecodeShape(EncodeShape(s))
	if err != nil {
		t.Fatalf("DecodeShape: %v", err)
	}

	if diff := cmp.Diff(s, decoded, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("shape round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeTypeUnknownTag(t *testing.T) {
	if _, err := decodeType(bytes.NewReader([]byte{255})); err == nil {
		t.Fatal("expected error for unknown type tag")
	}
}
