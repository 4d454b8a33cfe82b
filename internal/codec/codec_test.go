package codec

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/griffi-gh/awfuldb/internal/dberr"
	"github.com/griffi-gh/awfuldb/internal/types"
)

func mustEncode(t *testing.T, v Value, typ types.Type) []byte {
	t.Helper()
	b, err := Encode(v, typ)
	if err != nil {
		t.Fatalf("Encode(%+v, %+v): %v", v, typ, err)
	}
	return b
}

func TestRoundTripIntegers(t *testing.T) {
	cases := []struct {
		typ types.Type
		val uint64
	}{
		{types.Unsigned(types.Int8), math.MaxUint8},
		{types.Unsigned(types.Int16), math.MaxUint16},
		{types.Unsigned(types.Int32), math.MaxUint32},
		{types.Unsigned(types.Int64), math.MaxUint64},
		{types.Unsigned(types.Int8), 0},
	}
	for _, c := range cases {
		b := mustEncode(t, Integer(c.val), c.typ)
		got, err := Decode(b, c.typ)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got.Integer != c.val {
			t.Errorf("round trip %+v: got %d want %d", c.typ, got.Integer, c.val)
		}
	}
}

func TestSignedBoundaries(t *testing.T) {
	typ := types.Signed(types.Int8)
	if _, err := Encode(SignedInteger(127), typ); err != nil {
		t.Errorf("127 should fit in int8: %v", err)
	}
	if _, err := Encode(SignedInteger(-128), typ); err != nil {
		t.Errorf("-128 should fit in int8: %v", err)
	}
	if _, err := Encode(SignedInteger(128), typ); !dberr.Is(err, dberr.ValueOutOfRange) {
		t.Errorf("128 should overflow int8, got %v", err)
	}
	if _, err := Encode(SignedInteger(-129), typ); !dberr.Is(err, dberr.ValueOutOfRange) {
		t.Errorf("-129 should overflow int8, got %v", err)
	}
}

func TestUnsignedOverflow(t *testing.T) {
	typ := types.Unsigned(types.Int8)
	if _, err := Encode(Integer(255), typ); err != nil {
		t.Errorf("255 should fit in uint8: %v", err)
	}
	if _, err := Encode(Integer(256), typ); !dberr.Is(err, dberr.ValueOutOfRange) {
		t.Errorf("256 should overflow uint8, got %v", err)
	}
}

func TestTextBoundaries(t *testing.T) {
	typ := types.Text(5)
	if _, err := Encode(String("hello"), typ); err != nil {
		t.Errorf("5-byte string should fit in Text(5): %v", err)
	}
	if _, err := Encode(String("hello!"), typ); !dberr.Is(err, dberr.StringTooLong) {
		t.Errorf("6-byte string should overflow Text(5), got %v", err)
	}
	if _, err := Encode(String(""), typ); err != nil {
		t.Errorf("empty string should fit in Text(5): %v", err)
	}
}

func TestTextRoundTrip(t *testing.T) {
	typ := types.Text(11)
	for _, s := range []string{"Hello world", "Susceptible", "", "x"} {
		b := mustEncode(t, String(s), typ)
		if len(b) != typ.ByteSize() {
			t.Fatalf("encoded length %d != ByteSize %d", len(b), typ.ByteSize())
		}
		got, err := Decode(b, typ)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got.Str != s {
			t.Errorf("round trip %q: got %q", s, got.Str)
		}
	}
}

func TestTextInvalidLengthPrefix(t *testing.T) {
	typ := types.Text(5)
	buf := make([]byte, typ.ByteSize())
	buf[0] = 200 // length prefix far exceeds declared size
	if _, err := Decode(buf, typ); !dberr.Is(err, dberr.InvalidLength) {
		t.Errorf("expected InvalidLength, got %v", err)
	}
}

func TestTextInvalidUTF8(t *testing.T) {
	typ := types.Text(5)
	buf := make([]byte, typ.ByteSize())
	buf[0] = 2 // length = 2
	buf[4] = 0xFF
	buf[5] = 0xFE
	if _, err := Decode(buf, typ); !dberr.Is(err, dberr.InvalidUTF8) {
		t.Errorf("expected InvalidUTF8, got %v", err)
	}
}

func TestBlobRoundTrip(t *testing.T) {
	typ := types.Blob(4)
	want := []byte{1, 2, 3, 4}
	b := mustEncode(t, Blob(want), typ)
	got, err := Decode(b, typ)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(got.Bytes) != string(want) {
		t.Errorf("round trip: got %v want %v", got.Bytes, want)
	}
}

func TestBlobWrongLength(t *testing.T) {
	typ := types.Blob(4)
	if _, err := Encode(Blob([]byte{1, 2}), typ); !dberr.Is(err, dberr.InvalidLength) {
		t.Errorf("expected InvalidLength, got %v", err)
	}
}

func TestFloatRoundTrip(t *testing.T) {
	b32 := mustEncode(t, Float64Value(3.5), types.Float(types.Float32Size))
	got, err := Decode(b32, types.Float(types.Float32Size))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Float != 3.5 {
		t.Errorf("got %v want 3.5", got.Float)
	}
}

func TestPointerRoundTrip(t *testing.T) {
	typ := types.Pointer(2)
	b := mustEncode(t, Integer(42), typ)
	if len(b) != 8 {
		t.Fatalf("pointer encoding should be 8 bytes, got %d", len(b))
	}
	got, err := Decode(b, typ)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Integer != 42 {
		t.Errorf("got %d want 42", got.Integer)
	}
}

func TestValueJSONRoundTrip(t *testing.T) {
	values := []Value{
		String("hi"),
		Blob([]byte{1, 2, 3}),
		Integer(7),
		Float64Value(1.5),
	}
	for _, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("Marshal(%+v): %v", v, err)
		}
		var got Value
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal(%s): %v", data, err)
		}
		if got.Kind != v.Kind {
			t.Errorf("%s: kind got %d want %d", data, got.Kind, v.Kind)
		}
	}
}
