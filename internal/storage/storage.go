// Package storage implements fixed-size sector I/O over the backing
// container, the sector allocator, and the header/shape persistence
// cycle (spec §4.4). It is the lowest layer of the engine: internal/row
// builds row placement on top of Storage's sectors, internal/engine
// drives everything through Storage.ReadDatabase/SyncDatabase.
package storage

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"

	"github.com/griffi-gh/awfuldb/internal/dberr"
	"github.com/griffi-gh/awfuldb/internal/header"
	"github.com/griffi-gh/awfuldb/internal/shape"
)

// SectorSize is the fixed width of every sector in the backing container,
// including sector 0 (the header). Build-time constant per spec §3; an
// alternate larger value (e.g. 128 MiB) is an allowed but unexercised
// configuration.
const SectorSize = 1024

// Storage owns the backing container file, the in-memory header and
// shape caches, and their dirty flags. All sector-level I/O and the
// allocator live here.
type Storage struct {
	file   *os.File
	locked bool

	Header header.Header
	Shape  *shape.Shape

	headerDirty bool
	shapeDirty  bool
}

// Open locks and wraps an existing backing container file. It does not
// read the header/shape; call ReadDatabase for that. The advisory flock
// enforces spec §1's "a single process owns the backing file": a second
// Open against the same file fails with dberr.DatabaseLocked.
func Open(file *os.File) (*Storage, error) {
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return nil, dberr.New(dberr.DatabaseLocked, "storage: %s is already open by another process: %v", file.Name(), err)
	}
	return &Storage{file: file, locked: true, Header: header.Default(), Shape: shape.New()}, nil
}

// Close releases the advisory lock and closes the backing file. It does
// not sync; call SyncDatabase and SyncFS first if changes must persist.
func (s *Storage) Close() error {
	if s.locked {
		unix.Flock(int(s.file.Fd()), unix.LOCK_UN)
		s.locked = false
	}
	return s.file.Close()
}

// ReadSector returns exactly SectorSize bytes starting at sector s. Bytes
// beyond the backing container's current length (a sector logically
// allocated but never written past) read back as zero, matching the
// zero-filled row buffers the row engine writes before population.
func (s *Storage) ReadSector(sec uint64) ([]byte, error) {
	buf := make([]byte, SectorSize)
	n, err := s.file.ReadAt(buf, int64(sec)*SectorSize)
	if err != nil && err != io.EOF {
		return nil, dberr.New(dberr.IO, "storage: reading sector %d: %v", sec, err)
	}
	_ = n // short/partial reads are zero-padded by the pre-zeroed buf
	return buf, nil
}

// WriteSector writes data at byteOffset within sector sec.
func (s *Storage) WriteSector(sec uint64, data []byte, byteOffset int) error {
	if sec >= s.Header.SectorCount {
		return dberr.New(dberr.UnallocatedSector, "storage: sector %d >= sector_count %d", sec, s.Header.SectorCount)
	}
	if byteOffset+len(data) > SectorSize {
		return dberr.New(dberr.SectorOverflow, "storage: write of %d bytes at offset %d overflows sector size %d", len(data), byteOffset, SectorSize)
	}
	if _, err := s.file.WriteAt(data, int64(sec)*SectorSize+int64(byteOffset)); err != nil {
		return dberr.New(dberr.IO, "storage: writing sector %d: %v", sec, err)
	}
	// If this is the current tail sector and the write did not reach its
	// final byte, force the backing container's length to cover the full
	// sector so later reads are well-defined (spec §4.4).
	if sec == s.Header.SectorCount-1 && byteOffset+len(data) < SectorSize {
		info, err := s.file.Stat()
		if err != nil {
			return dberr.New(dberr.IO, "storage: stat: %v", err)
		}
		want := int64(sec)*SectorSize + SectorSize
		if info.Size() < want {
			if _, err := s.file.WriteAt([]byte{0}, want-1); err != nil {
				return dberr.New(dberr.IO, "storage: extending tail sector %d: %v", sec, err)
			}
		}
	}
	return nil
}

// writeRaw writes data directly at an absolute byte offset, bypassing the
// single-sector bounds checks WriteSector performs, for use when a write
// spans multiple sectors (write_shape's relocated buffer).
func (s *Storage) writeRaw(byteOffset int64, data []byte) error {
	if _, err := s.file.WriteAt(data, byteOffset); err != nil {
		return dberr.New(dberr.IO, "storage: raw write at %d: %v", byteOffset, err)
	}
	return nil
}

func (s *Storage) readRaw(byteOffset int64, length int) ([]byte, error) {
	buf := make([]byte, length)
	_, err := s.file.ReadAt(buf, byteOffset)
	if err != nil && err != io.EOF {
		return nil, dberr.New(dberr.IO, "storage: raw read at %d: %v", byteOffset, err)
	}
	return buf, nil
}

// --- Allocator (spec §4.4) ---

// AllocateSector returns a sector index for new use: the front of the
// reclaim queue if non-empty (marking shapeDirty), else a freshly bumped
// sector at the end of the container (marking headerDirty).
func (s *Storage) AllocateSector() uint64 {
	if sec, ok := s.Shape.PopReclaim(); ok {
		s.shapeDirty = true
		return sec
	}
	sec := s.Header.SectorCount
	s.Header.SectorCount++
	s.headerDirty = true
	return sec
}

// AllocateMultipleSectors fills n sector indices using AllocateSector's
// policy, one slot at a time.
func (s *Storage) AllocateMultipleSectors(n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = s.AllocateSector()
	}
	return out
}

// AllocateConsecutiveSectors returns a range of length freshly bumped,
// consecutive sector indices. It does not consult the reclaim queue
// (spec §4.4, §9: "consecutive allocation from the reclaim queue is a
// declared open question" left unresolved), except that length == 1
// delegates to AllocateSector, which may pull from reclaim.
func (s *Storage) AllocateConsecutiveSectors(length int) []uint64 {
	switch {
	case length == 0:
		return nil
	case length == 1:
		return []uint64{s.AllocateSector()}
	}
	start := s.Header.SectorCount
	s.Header.SectorCount += uint64(length)
	s.headerDirty = true
	out := make([]uint64, length)
	for i := range out {
		out[i] = start + uint64(i)
	}
	return out
}

// ReclaimSector returns sec to the allocator. If sec is the current tail
// sector, the container shrinks immediately (tail fast-path); otherwise
// sec is pushed onto the back of the reclaim FIFO.
func (s *Storage) ReclaimSector(sec uint64) {
	if sec == s.Header.SectorCount-1 {
		s.Header.SectorCount--
		s.headerDirty = true
		return
	}
	s.Shape.PushReclaim(sec)
	s.shapeDirty = true
}

// MarkShapeDirty flags the shape as needing a write on the next
// SyncDatabase. Called by internal/row after placing a row.
func (s *Storage) MarkShapeDirty() { s.shapeDirty = true }

// --- Header/shape persistence (spec §4.4) ---

// ReadHeader reads and decodes sector 0 into Header, clearing headerDirty.
func (s *Storage) ReadHeader() error {
	buf, err := s.ReadSector(0)
	if err != nil {
		return err
	}
	h, err := header.Decode(buf)
	if err != nil {
		return err
	}
	s.Header = h
	s.headerDirty = false
	return nil
}

// WriteHeader encodes Header into a zero-padded sector-sized buffer and
// writes it to sector 0, clearing headerDirty.
func (s *Storage) WriteHeader() error {
	buf := make([]byte, SectorSize)
	copy(buf, s.Header.Encode())
	if err := s.writeRaw(0, buf); err != nil {
		return err
	}
	s.headerDirty = false
	return nil
}

// ReadShape reads the shape region named by Header.ShapeLocation, decodes
// it into Shape, and clears shapeDirty.
func (s *Storage) ReadShape() error {
	sectors := s.Header.ShapeSectors()
	buf, err := s.readRaw(int64(s.Header.ShapeStart)*SectorSize, int(sectors)*SectorSize)
	if err != nil {
		return err
	}
	sh, err := DecodeShape(buf)
	if err != nil {
		return err
	}
	s.Shape = sh
	s.shapeDirty = false
	return nil
}

// WriteShape persists Shape, relocating it to a fresh, larger consecutive
// sector range if it has outgrown its current one. This is the one
// self-referential case in the engine: reclaiming the old range mutates
// Shape.Reclaim, i.e. the very structure being serialized (spec §4.4/§9).
func (s *Storage) WriteShape() error {
	encoded := EncodeShape(s.Shape)

	currentSectors := s.Header.ShapeSectors()
	neededSectors := (uint64(len(encoded)) + SectorSize - 1) / SectorSize
	if neededSectors == 0 {
		neededSectors = 1
	}

	if uint64(len(encoded)) > currentSectors*SectorSize {
		oldStart, oldEnd := s.Header.ShapeStart, s.Header.ShapeEnd

		// Clear shapeDirty before reclaiming: reclaim may itself set it
		// again (the non-tail-fast-path branch does), and if it does we
		// must re-serialize with the now-stale encoded buffer discarded.
		s.shapeDirty = false
		for sec := oldEnd; sec > oldStart; sec-- {
			s.ReclaimSector(sec - 1)
		}
		if s.shapeDirty {
			encoded = EncodeShape(s.Shape)
			neededSectors = (uint64(len(encoded)) + SectorSize - 1) / SectorSize
			if neededSectors == 0 {
				neededSectors = 1
			}
		}

		newRange := s.AllocateConsecutiveSectors(int(neededSectors))
		s.Header.ShapeStart = newRange[0]
		s.Header.ShapeEnd = newRange[0] + uint64(len(newRange))
		s.headerDirty = true
	}

	regionBytes := int(s.Header.ShapeSectors()) * SectorSize
	padded := make([]byte, regionBytes)
	copy(padded, encoded)
	if err := s.writeRaw(int64(s.Header.ShapeStart)*SectorSize, padded); err != nil {
		return err
	}
	s.shapeDirty = false
	return nil
}

// ReadDatabase loads header then shape, in that order (the shape's
// location is only known once the header has been read).
func (s *Storage) ReadDatabase() error {
	if err := s.ReadHeader(); err != nil {
		return err
	}
	return s.ReadShape()
}

// SyncDatabase flushes dirty in-memory state to the backing container.
// Shape is written first, since write_shape may itself dirty the header
// (by relocating the shape region); header is written last so it reflects
// any relocation.
func (s *Storage) SyncDatabase() error {
	if s.shapeDirty {
		if err := s.WriteShape(); err != nil {
			return err
		}
	}
	if s.headerDirty {
		if err := s.WriteHeader(); err != nil {
			return err
		}
	}
	return nil
}

// SyncFS flushes the backing container to stable storage.
func (s *Storage) SyncFS() error {
	if err := unix.Fdatasync(int(s.file.Fd())); err != nil {
		if err := s.file.Sync(); err != nil {
			return dberr.New(dberr.IO, "storage: sync: %v", xerrors.Errorf("fdatasync and Sync both failed: %w", err))
		}
	}
	return nil
}

// Truncate shrinks the backing container to exactly
// Header.SectorCount*SectorSize bytes, if it is currently longer.
func (s *Storage) Truncate() error {
	info, err := s.file.Stat()
	if err != nil {
		return dberr.New(dberr.IO, "storage: stat: %v", err)
	}
	want := int64(s.Header.SectorCount) * SectorSize
	if info.Size() > want {
		if err := s.file.Truncate(want); err != nil {
			return dberr.New(dberr.IO, "storage: truncate: %v", err)
		}
	}
	return nil
}
