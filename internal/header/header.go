// Package header implements the persisted locator stored in sector 0:
// where the shape region lives and how many sectors the backing
// container currently has allocated (spec §3, §4.4).
package header

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/griffi-gh/awfuldb/internal/dberr"
)

// EncodedSize is the fixed on-disk width of a Header: three little-endian
// uint64 fields (shape start, shape end, sector count), each written with
// binary.LittleEndian.PutUint64 and read back with
// binary.LittleEndian.Uint64.
const EncodedSize = 24

// Header locates the shape region and records the total sector count.
type Header struct {
	ShapeStart uint64
	ShapeEnd   uint64 // exclusive
	SectorCount uint64
}

// Default is the header of a freshly created database: an empty shape
// region and only the header sector itself allocated.
func Default() Header {
	return Header{ShapeStart: 0, ShapeEnd: 0, SectorCount: 1}
}

// ShapeSectors returns the number of sectors in the shape region.
func (h Header) ShapeSectors() uint64 {
	return h.ShapeEnd - h.ShapeStart
}

// Encode renders h into a fixed EncodedSize-byte little-endian buffer.
func (h Header) Encode() []byte {
	var buf bytes.Buffer
	buf.Grow(EncodedSize)
	for _, v := range []uint64{h.ShapeStart, h.ShapeEnd, h.SectorCount} {
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], v)
		buf.Write(tmp[:])
	}
	return buf.Bytes()
}

// Decode parses a Header from the first EncodedSize bytes of data.
func Decode(data []byte) (Header, error) {
	if len(data) < EncodedSize {
		return Header{}, dberr.New(dberr.Decode, "header: buffer of %d bytes shorter than %d", len(data), EncodedSize)
	}
	return Header{
		ShapeStart:  binary.LittleEndian.Uint64(data[0:8]),
		ShapeEnd:    binary.LittleEndian.Uint64(data[8:16]),
		SectorCount: binary.LittleEndian.Uint64(data[16:24]),
	}, nil
}

func (h Header) String() string {
	return fmt.Sprintf("Header{shape=[%d,%d) sectors=%d}", h.ShapeStart, h.ShapeEnd, h.SectorCount)
}
