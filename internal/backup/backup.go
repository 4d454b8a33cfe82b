// Package backup snapshots a database's backing file to a gzip-compressed
// copy, adapted from distri's cmd/distri/initrd.go pgzip+renameio pattern:
// parallel-compress into a temp file, then atomically replace the
// destination so a reader never observes a partially written backup. It is
// a supplemented feature (SPEC_FULL.md §2), outside the engine proper.
package backup

import (
	"io"
	"os"

	"github.com/google/renameio"
	"github.com/klauspost/pgzip"
	"golang.org/x/xerrors"
)

// Export reads the entire backing file at srcPath and writes a
// gzip-compressed copy to dstPath, replacing dstPath atomically on
// success.
func Export(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return xerrors.Errorf("backup: open %s: %w", srcPath, err)
	}
	defer src.Close()

	out, err := renameio.TempFile("", dstPath)
	if err != nil {
		return xerrors.Errorf("backup: tempfile: %w", err)
	}
	defer out.Cleanup()

	zw := pgzip.NewWriter(out)
	if _, err := io.Copy(zw, src); err != nil {
		return xerrors.Errorf("backup: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return xerrors.Errorf("backup: close gzip writer: %w", err)
	}
	return out.CloseAtomicallyReplace()
}

// Import decompresses a gzip-compressed backup at srcPath into dstPath,
// replacing dstPath atomically on success.
func Import(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return xerrors.Errorf("backup: open %s: %w", srcPath, err)
	}
	defer src.Close()

	zr, err := pgzip.NewReader(src)
	if err != nil {
		return xerrors.Errorf("backup: new gzip reader: %w", err)
	}
	defer zr.Close()

	out, err := renameio.TempFile("", dstPath)
	if err != nil {
		return xerrors.Errorf("backup: tempfile: %w", err)
	}
	defer out.Cleanup()

	if _, err := io.Copy(out, zr); err != nil {
		return xerrors.Errorf("backup: decompress: %w", err)
	}
	return out.CloseAtomicallyReplace()
}
