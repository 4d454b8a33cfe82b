package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func allScalarTypes() []Type {
	return []Type{
		Unsigned(Int8), Unsigned(Int16), Unsigned(Int32), Unsigned(Int64),
		Signed(Int8), Signed(Int16), Signed(Int32), Signed(Int64),
		Float(Float32Size), Float(Float64Size),
		Text(11), Blob(20),
	}
}

func TestRoundTripTypeTree(t *testing.T) {
	for _, typ := range allScalarTypes() {
		got := FromTree(typ.ToTree())
		if diff := cmp.Diff(typ, got, cmp.AllowUnexported()); diff != "" {
			t.Errorf("FromTree(ToTree(%+v)) mismatch (-want +got):\n%s", typ, diff)
		}
	}
}

func TestByteSizes(t *testing.T) {
	cases := []struct {
		typ  Type
		want int
	}{
		{Unsigned(Int8), 1},
		{Unsigned(Int16), 2},
		{Unsigned(Int32), 4},
		{Unsigned(Int64), 8},
		{Signed(Int64), 8},
		{Float(Float32Size), 4},
		{Float(Float64Size), 8},
		{Text(11), 15},
		{Blob(20), 20},
		{Pointer(3), 8},
	}
	for _, c := range cases {
		if got := c.typ.ByteSize(); got != c.want {
			t.Errorf("%+v.ByteSize() = %d, want %d", c.typ, got, c.want)
		}
	}
}

func TestPointerHasNoTreeForm(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected ToTree on a Pointer type to panic")
		}
	}()
	Pointer(0).ToTree()
}
