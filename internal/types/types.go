// Package types implements the dual compact/tree representation of the
// engine's scalar type taxonomy (spec §4.1). Type is the persisted,
// copyable tagged union; TypeTree is the ergonomic form used for pattern
// matching. Conversion between the two is pure and bijective for every
// variant except Pointer, which has no tree form (ToTree panics on it).
package types

import "fmt"

// IntegerSize is the byte width of an integer type.
type IntegerSize uint8

const (
	Int8  IntegerSize = 1
	Int16 IntegerSize = 2
	Int32 IntegerSize = 4
	Int64 IntegerSize = 8
)

// FloatSize is the byte width of a floating-point type.
type FloatSize uint8

const (
	Float32Size FloatSize = 4
	Float64Size FloatSize = 8
)

// IntegerType is a sized, signed-or-unsigned integer.
type IntegerType struct {
	Size     IntegerSize
	IsSigned bool
}

// FloatType is a sized floating-point number.
type FloatType struct {
	Size FloatSize
}

// NumberKind discriminates NumberType's two variants.
type NumberKind uint8

const (
	NumberInteger NumberKind = iota
	NumberFloat
)

// NumberType is either an IntegerType or a FloatType.
type NumberType struct {
	Kind    NumberKind
	Integer IntegerType
	Float   FloatType
}

func (n NumberType) ByteSize() int {
	switch n.Kind {
	case NumberInteger:
		return int(n.Integer.Size)
	case NumberFloat:
		return int(n.Float.Size)
	default:
		panic(fmt.Sprintf("types: invalid NumberKind %d", n.Kind))
	}
}

// TextType is a fixed-capacity UTF-8 string column; on disk it occupies
// 4+Size bytes (a u32 length prefix followed by zero-padded payload).
type TextType struct {
	Size int
}

func (t TextType) ByteSize() int { return 4 + t.Size }

// BlobType is a fixed-size raw byte column; unlike TextType it carries no
// length prefix (spec §9 resolves this: exact-length raw bytes).
type BlobType struct {
	Size int
}

func (b BlobType) ByteSize() int { return b.Size }

// TreeKind discriminates TypeTree's variants.
type TreeKind uint8

const (
	TreeNumber TreeKind = iota
	TreeText
	TreeBlob
)

// TypeTree is the ergonomic, pattern-matching-friendly form of the type
// taxonomy.
type TypeTree struct {
	Kind   TreeKind
	Number NumberType
	Text   TextType
	Blob   BlobType
}

func (t TypeTree) ByteSize() int {
	switch t.Kind {
	case TreeNumber:
		return t.Number.ByteSize()
	case TreeText:
		return t.Text.ByteSize()
	case TreeBlob:
		return t.Blob.ByteSize()
	default:
		panic(fmt.Sprintf("types: invalid TreeKind %d", t.Kind))
	}
}

// Kind discriminates Type's variants.
type Kind uint8

const (
	KindUnsigned8 Kind = iota
	KindUnsigned16
	KindUnsigned32
	KindUnsigned64
	KindSigned8
	KindSigned16
	KindSigned32
	KindSigned64
	KindFloat32
	KindFloat64
	KindText
	KindBlob
	KindPointer
)

// Type is the compact, persisted tagged union of every storable scalar
// type. Text and Blob carry their declared size; Pointer carries the
// target table's positional index (resolved at TableCreate time, spec
// §4.1/§4.6.1).
type Type struct {
	Kind         Kind
	Size         int // Text/Blob declared size
	TargetTable  int // Pointer target table index
}

// ByteSize returns the on-disk width of one value of this type. Pointer
// is resolved to 8 bytes (spec §9), matching the rowid width used
// everywhere else a row index crosses the wire or the disk.
func (t Type) ByteSize() int {
	switch t.Kind {
	case KindUnsigned8, KindSigned8:
		return int(Int8)
	case KindUnsigned16, KindSigned16:
		return int(Int16)
	case KindUnsigned32, KindSigned32:
		return int(Int32)
	case KindUnsigned64, KindSigned64:
		return int(Int64)
	case KindFloat32:
		return int(Float32Size)
	case KindFloat64:
		return int(Float64Size)
	case KindText:
		return TextType{Size: t.Size}.ByteSize()
	case KindBlob:
		return BlobType{Size: t.Size}.ByteSize()
	case KindPointer:
		return 8
	default:
		panic(fmt.Sprintf("types: invalid Kind %d", t.Kind))
	}
}

func Unsigned(size IntegerSize) Type { return integerType(size, false) }
func Signed(size IntegerSize) Type   { return integerType(size, true) }

func integerType(size IntegerSize, signed bool) Type {
	switch {
	case size == Int8 && !signed:
		return Type{Kind: KindUnsigned8}
	case size == Int16 && !signed:
		return Type{Kind: KindUnsigned16}
	case size == Int32 && !signed:
		return Type{Kind: KindUnsigned32}
	case size == Int64 && !signed:
		return Type{Kind: KindUnsigned64}
	case size == Int8 && signed:
		return Type{Kind: KindSigned8}
	case size == Int16 && signed:
		return Type{Kind: KindSigned16}
	case size == Int32 && signed:
		return Type{Kind: KindSigned32}
	case size == Int64 && signed:
		return Type{Kind: KindSigned64}
	default:
		panic(fmt.Sprintf("types: invalid integer size %d", size))
	}
}

func Float(size FloatSize) Type {
	switch size {
	case Float32Size:
		return Type{Kind: KindFloat32}
	case Float64Size:
		return Type{Kind: KindFloat64}
	default:
		panic(fmt.Sprintf("types: invalid float size %d", size))
	}
}

func Text(size int) Type    { return Type{Kind: KindText, Size: size} }
func Blob(size int) Type    { return Type{Kind: KindBlob, Size: size} }
func Pointer(table int) Type { return Type{Kind: KindPointer, TargetTable: table} }

// ToTree converts the compact form to the ergonomic tree form. Pointer has
// no tree representation (it is not a NumberType/TextType/BlobType in the
// original taxonomy); callers must special-case Kind == KindPointer before
// calling ToTree, the same way the Rust source's TypeTree enum has no
// Pointer variant.
func (t Type) ToTree() TypeTree {
	switch t.Kind {
	case KindUnsigned8:
		return numberTree(Int8, false)
	case KindUnsigned16:
		return numberTree(Int16, false)
	case KindUnsigned32:
		return numberTree(Int32, false)
	case KindUnsigned64:
		return numberTree(Int64, false)
	case KindSigned8:
		return numberTree(Int8, true)
	case KindSigned16:
		return numberTree(Int16, true)
	case KindSigned32:
		return numberTree(Int32, true)
	case KindSigned64:
		return numberTree(Int64, true)
	case KindFloat32:
		return TypeTree{Kind: TreeNumber, Number: NumberType{Kind: NumberFloat, Float: FloatType{Size: Float32Size}}}
	case KindFloat64:
		return TypeTree{Kind: TreeNumber, Number: NumberType{Kind: NumberFloat, Float: FloatType{Size: Float64Size}}}
	case KindText:
		return TypeTree{Kind: TreeText, Text: TextType{Size: t.Size}}
	case KindBlob:
		return TypeTree{Kind: TreeBlob, Blob: BlobType{Size: t.Size}}
	default:
		panic(fmt.Sprintf("types: %v has no tree representation", t.Kind))
	}
}

func numberTree(size IntegerSize, signed bool) TypeTree {
	return TypeTree{Kind: TreeNumber, Number: NumberType{Kind: NumberInteger, Integer: IntegerType{Size: size, IsSigned: signed}}}
}

// FromTree converts the ergonomic tree form back to the compact form. The
// round trip ToTree/FromTree is only guaranteed for types that have a tree
// representation (everything except Pointer).
func FromTree(tree TypeTree) Type {
	switch tree.Kind {
	case TreeNumber:
		switch tree.Number.Kind {
		case NumberInteger:
			return integerType(tree.Number.Integer.Size, tree.Number.Integer.IsSigned)
		case NumberFloat:
			return Float(tree.Number.Float.Size)
		default:
			panic(fmt.Sprintf("types: invalid NumberKind %d", tree.Number.Kind))
		}
	case TreeText:
		return Text(tree.Text.Size)
	case TreeBlob:
		return Blob(tree.Blob.Size)
	default:
		panic(fmt.Sprintf("types: invalid TreeKind %d", tree.Kind))
	}
}
