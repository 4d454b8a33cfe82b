// Package codec serializes and deserializes single scalar values to and
// from the fixed-width byte layouts declared by internal/types (spec
// §4.2). All multi-byte integers and floats are little-endian.
package codec

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/griffi-gh/awfuldb/internal/dberr"
	"github.com/griffi-gh/awfuldb/internal/types"
)

// ValueKind discriminates Value's variants, mirroring the untagged
// String/Blob/Integer/Float union the original JSON wire format uses.
type ValueKind uint8

const (
	KindString ValueKind = iota
	KindBlob
	KindInteger
	KindFloat
	// KindNull represents a nullable column whose row-level bitmap bit is
	// set; it carries no typed field and never round-trips through Encode.
	KindNull
)

// Value is one scalar value, in whichever of the five shapes the wire
// format or a decode produced. Exactly one of the typed fields is
// meaningful, selected by Kind; KindNull uses none of them.
type Value struct {
	Kind    ValueKind
	Str     string
	Bytes   []byte
	Integer uint64 // also holds signed integers, via two's complement
	Float   float64
}

func String(s string) Value        { return Value{Kind: KindString, Str: s} }
func Blob(b []byte) Value          { return Value{Kind: KindBlob, Bytes: b} }
func Integer(v uint64) Value       { return Value{Kind: KindInteger, Integer: v} }
func SignedInteger(v int64) Value  { return Value{Kind: KindInteger, Integer: uint64(v)} }
func Float64Value(v float64) Value { return Value{Kind: KindFloat, Float: v} }
func Null() Value                  { return Value{Kind: KindNull} }

// MarshalJSON renders a Value the way the untagged DbRowColumnValue enum
// serializes in the original wire format: whichever JSON scalar shape the
// active variant naturally produces. Blob renders as a JSON array of byte
// values (matching how Rust's default Vec<u8> serialization behaves),
// deliberately not as a base64 string, so the decoder can distinguish it
// from the String variant by shape alone.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return json.Marshal(nil)
	case KindString:
		return json.Marshal(v.Str)
	case KindBlob:
		ints := make([]int, len(v.Bytes))
		for i, b := range v.Bytes {
			ints[i] = int(b)
		}
		return json.Marshal(ints)
	case KindInteger:
		return json.Marshal(v.Integer)
	case KindFloat:
		return json.Marshal(v.Float)
	default:
		return nil, fmt.Errorf("codec: invalid ValueKind %d", v.Kind)
	}
}

// UnmarshalJSON sniffs the decoded JSON shape to recover which variant of
// the untagged union was sent, the same trick Rust's serde(untagged) does
// by trying each variant in declaration order: String, then Blob (a JSON
// array of byte values), then Integer, then Float.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		v.Kind = KindNull
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v.Kind = KindString
		v.Str = s
		return nil
	}
	var ints []int
	if err := json.Unmarshal(data, &ints); err == nil {
		b := make([]byte, len(ints))
		for i, n := range ints {
			if n < 0 || n > 255 {
				return fmt.Errorf("codec: blob byte %d out of range", n)
			}
			b[i] = byte(n)
		}
		v.Kind = KindBlob
		v.Bytes = b
		return nil
	}
	var u uint64
	if err := json.Unmarshal(data, &u); err == nil {
		v.Kind = KindInteger
		v.Integer = u
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		v.Kind = KindFloat
		v.Float = f
		return nil
	}
	return fmt.Errorf("codec: value %q matches no known shape", string(data))
}

// Encode serializes value into exactly typ.ByteSize() bytes.
func Encode(value Value, typ types.Type) ([]byte, error) {
	switch typ.Kind {
	case types.KindUnsigned8, types.KindUnsigned16, types.KindUnsigned32, types.KindUnsigned64:
		return encodeUnsigned(value, typ)
	case types.KindSigned8, types.KindSigned16, types.KindSigned32, types.KindSigned64:
		return encodeSigned(value, typ)
	case types.KindFloat32, types.KindFloat64:
		return encodeFloat(value, typ)
	case types.KindText:
		return encodeText(value, typ.Size)
	case types.KindBlob:
		return encodeBlob(value, typ.Size)
	case types.KindPointer:
		return encodeUnsigned(value, types.Unsigned(types.Int64))
	default:
		return nil, dberr.New(dberr.TypeMismatch, "codec: unknown type kind %d", typ.Kind)
	}
}

func wantInteger(value Value) (uint64, bool) {
	if value.Kind != KindInteger {
		return 0, false
	}
	return value.Integer, true
}

func encodeUnsigned(value Value, typ types.Type) ([]byte, error) {
	u, ok := wantInteger(value)
	if !ok {
		return nil, dberr.New(dberr.TypeMismatch, "codec: expected integer value")
	}
	size := typ.ByteSize()
	var max uint64
	switch size {
	case 1:
		max = math.MaxUint8
	case 2:
		max = math.MaxUint16
	case 4:
		max = math.MaxUint32
	case 8:
		max = math.MaxUint64
	}
	if size != 8 && u > max {
		return nil, dberr.New(dberr.ValueOutOfRange, "codec: %d does not fit in %d unsigned bytes", u, size)
	}
	out := make([]byte, size)
	switch size {
	case 1:
		out[0] = byte(u)
	case 2:
		binary.LittleEndian.PutUint16(out, uint16(u))
	case 4:
		binary.LittleEndian.PutUint32(out, uint32(u))
	case 8:
		binary.LittleEndian.PutUint64(out, u)
	}
	return out, nil
}

func encodeSigned(value Value, typ types.Type) ([]byte, error) {
	u, ok := wantInteger(value)
	if !ok {
		return nil, dberr.New(dberr.TypeMismatch, "codec: expected integer value")
	}
	signed := int64(u)
	size := typ.ByteSize()
	var lo, hi int64
	switch size {
	case 1:
		lo, hi = math.MinInt8, math.MaxInt8
	case 2:
		lo, hi = math.MinInt16, math.MaxInt16
	case 4:
		lo, hi = math.MinInt32, math.MaxInt32
	case 8:
		lo, hi = math.MinInt64, math.MaxInt64
	}
	if signed < lo || signed > hi {
		return nil, dberr.New(dberr.ValueOutOfRange, "codec: %d does not fit in %d signed bytes", signed, size)
	}
	out := make([]byte, size)
	switch size {
	case 1:
		out[0] = byte(signed)
	case 2:
		binary.LittleEndian.PutUint16(out, uint16(signed))
	case 4:
		binary.LittleEndian.PutUint32(out, uint32(signed))
	case 8:
		binary.LittleEndian.PutUint64(out, uint64(signed))
	}
	return out, nil
}

func encodeFloat(value Value, typ types.Type) ([]byte, error) {
	if value.Kind != KindFloat {
		return nil, dberr.New(dberr.TypeMismatch, "codec: expected float value")
	}
	size := typ.ByteSize()
	out := make([]byte, size)
	switch size {
	case 4:
		binary.LittleEndian.PutUint32(out, math.Float32bits(float32(value.Float)))
	case 8:
		binary.LittleEndian.PutUint64(out, math.Float64bits(value.Float))
	}
	return out, nil
}

func encodeText(value Value, size int) ([]byte, error) {
	if value.Kind != KindString {
		return nil, dberr.New(dberr.TypeMismatch, "codec: expected string value")
	}
	s := value.Str
	length := len(s) // byte length, matches Rust's s.len() (bytes, not runes)
	if length > size {
		return nil, dberr.New(dberr.StringTooLong, "codec: string of %d bytes exceeds declared size %d", length, size)
	}
	out := make([]byte, 4+size)
	binary.LittleEndian.PutUint32(out[0:4], uint32(length))
	copy(out[4:4+length], s)
	return out, nil
}

func encodeBlob(value Value, size int) ([]byte, error) {
	if value.Kind != KindBlob {
		return nil, dberr.New(dberr.TypeMismatch, "codec: expected blob value")
	}
	if len(value.Bytes) != size {
		return nil, dberr.New(dberr.InvalidLength, "codec: blob of %d bytes does not match declared size %d", len(value.Bytes), size)
	}
	out := make([]byte, size)
	copy(out, value.Bytes)
	return out, nil
}

// Decode deserializes exactly typ.ByteSize() bytes from data (data may be
// longer; only the prefix is consumed) back into a Value.
func Decode(data []byte, typ types.Type) (Value, error) {
	if len(data) < typ.ByteSize() {
		return Value{}, dberr.New(dberr.InvalidLength, "codec: buffer of %d bytes too short for %d-byte type", len(data), typ.ByteSize())
	}
	switch typ.Kind {
	case types.KindUnsigned8:
		return Integer(uint64(data[0])), nil
	case types.KindUnsigned16:
		return Integer(uint64(binary.LittleEndian.Uint16(data))), nil
	case types.KindUnsigned32:
		return Integer(uint64(binary.LittleEndian.Uint32(data))), nil
	case types.KindUnsigned64:
		return Integer(binary.LittleEndian.Uint64(data)), nil
	case types.KindSigned8:
		return SignedInteger(int64(int8(data[0]))), nil
	case types.KindSigned16:
		return SignedInteger(int64(int16(binary.LittleEndian.Uint16(data)))), nil
	case types.KindSigned32:
		return SignedInteger(int64(int32(binary.LittleEndian.Uint32(data)))), nil
	case types.KindSigned64:
		return SignedInteger(int64(binary.LittleEndian.Uint64(data))), nil
	case types.KindFloat32:
		return Float64Value(float64(math.Float32frombits(binary.LittleEndian.Uint32(data)))), nil
	case types.KindFloat64:
		return Float64Value(math.Float64frombits(binary.LittleEndian.Uint64(data))), nil
	case types.KindText:
		return decodeText(data, typ.Size)
	case types.KindBlob:
		b := make([]byte, typ.Size)
		copy(b, data[:typ.Size])
		return Blob(b), nil
	case types.KindPointer:
		return Integer(binary.LittleEndian.Uint64(data)), nil
	default:
		return Value{}, dberr.New(dberr.TypeMismatch, "codec: unknown type kind %d", typ.Kind)
	}
}

func decodeText(data []byte, size int) (Value, error) {
	if len(data) < 4 {
		return Value{}, dberr.New(dberr.InvalidLength, "codec: text buffer too short for length prefix")
	}
	length := binary.LittleEndian.Uint32(data[0:4])
	if int(length) > size || 4+int(length) > len(data) {
		return Value{}, dberr.New(dberr.InvalidLength, "codec: text length prefix %d overruns buffer", length)
	}
	raw := data[4 : 4+int(length)]
	if !utf8.Valid(raw) {
		return Value{}, dberr.New(dberr.InvalidUTF8, "codec: text payload is not valid UTF-8")
	}
	return String(string(raw)), nil
}
