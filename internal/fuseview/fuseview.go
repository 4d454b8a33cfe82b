// Package fuseview mounts a read-only debug view of a Database: one
// directory per table, one JSON file per row, adapted from distri's
// internal/fuse package (the same jacobsa/fuse inode-table idiom, stripped
// of squashfs image scanning and the package-management-specific exchange
// dirs). It is a supplemented feature (SPEC_FULL.md §2): purely for
// inspection, never written to.
package fuseview

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"golang.org/x/xerrors"

	"github.com/griffi-gh/awfuldb/internal/engine"
)

const rootInode = fuseops.RootInodeID

// inode encoding: table directories get 2..1+len(tables); row files get
// 1<<33 + tableIdx*rowSpace + rowID, so two tables' row inodes never
// collide. This bounds a mountable table to rowSpace rows, ample for a
// debug view.
const rowSpace = 1 << 32

type fs struct {
	fuseutil.NotImplementedFileSystem
	db     *engine.Database
	tables []string // index i -> table name, inode 2+i
}

func tableInode(i int) fuseops.InodeID { return fuseops.InodeID(2 + i) }

func rowInode(tableIdx int, rowID uint64) fuseops.InodeID {
	return fuseops.InodeID(1<<33) + fuseops.InodeID(tableIdx)*rowSpace + fuseops.InodeID(rowID)
}

func (f *fs) tableIndexFromRowInode(inode fuseops.InodeID) (tableIdx int, rowID uint64, ok bool) {
	if inode < fuseops.InodeID(1<<33) {
		return 0, 0, false
	}
	rel := inode - fuseops.InodeID(1<<33)
	return int(rel / rowSpace), uint64(rel % rowSpace), true
}

func dirAttrs() fuseops.InodeAttributes {
	return fuseops.InodeAttributes{Nlink: 1, Mode: os.ModeDir | 0555}
}

func fileAttrs(size uint64) fuseops.InodeAttributes {
	return fuseops.InodeAttributes{Nlink: 1, Mode: 0444, Size: size}
}

func (f *fs) rowJSON(tableIdx int, rowID uint64) ([]byte, error) {
	row, err := f.db.ReadRow(f.tables[tableIdx], rowID)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(row, "", "  ")
}

func (f *fs) StatFS(ctx context.Context, op *fuseops.StatFSOp) error {
	return nil
}

func (f *fs) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) error {
	if op.Parent == rootInode {
		for i, name := range f.tables {
			if name == op.Name {
				op.Entry.Child = tableInode(i)
				op.Entry.Attributes = dirAttrs()
				return nil
			}
		}
		return fuse.ENOENT
	}

	tableIdx, isTable := f.tableIndexOf(op.Parent)
	if !isTable {
		return fuse.ENOENT
	}
	var rowID uint64
	if _, err := fmt.Sscanf(op.Name, "%d.json", &rowID); err != nil {
		return fuse.ENOENT
	}
	count, err := f.db.RowCount(f.tables[tableIdx])
	if err != nil {
		return fuse.ENOENT
	}
	if rowID >= count {
		return fuse.ENOENT
	}
	body, err := f.rowJSON(tableIdx, rowID)
	if err != nil {
		return xerrors.Errorf("fuseview: %w", err)
	}
	op.Entry.Child = rowInode(tableIdx, rowID)
	op.Entry.Attributes = fileAttrs(uint64(len(body)))
	return nil
}

func (f *fs) tableIndexOf(inode fuseops.InodeID) (int, bool) {
	if inode < 2 || int(inode)-2 >= len(f.tables) {
		return 0, false
	}
	return int(inode) - 2, true
}

func (f *fs) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) error {
	if op.Inode == rootInode {
		op.Attributes = dirAttrs()
		return nil
	}
	if _, ok := f.tableIndexOf(op.Inode); ok {
		op.Attributes = dirAttrs()
		return nil
	}
	tableIdx, rowID, ok := f.tableIndexFromRowInode(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	body, err := f.rowJSON(tableIdx, rowID)
	if err != nil {
		return fuse.ENOENT
	}
	op.Attributes = fileAttrs(uint64(len(body)))
	return nil
}

func (f *fs) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) error { return nil }

func (f *fs) ReadDir(ctx context.Context, op *fuseops.ReadDirOp) error {
	var entries []fuseutil.Dirent

	if op.Inode == rootInode {
		names := append([]string(nil), f.tables...)
		sort.Strings(names)
		for i, name := range names {
			entries = append(entries, fuseutil.Dirent{
				Offset: fuseops.DirOffset(i + 1),
				Inode:  tableInode(f.indexOfTable(name)),
				Name:   name,
				Type:   fuseutil.DT_Directory,
			})
		}
	} else if tableIdx, ok := f.tableIndexOf(op.Inode); ok {
		count, err := f.db.RowCount(f.tables[tableIdx])
		if err != nil {
			return xerrors.Errorf("fuseview: %w", err)
		}
		for r := uint64(0); r < count; r++ {
			entries = append(entries, fuseutil.Dirent{
				Offset: fuseops.DirOffset(r + 1),
				Inode:  rowInode(tableIdx, r),
				Name:   fmt.Sprintf("%d.json", r),
				Type:   fuseutil.DT_File,
			})
		}
	} else {
		return fuse.ENOENT
	}

	if op.Offset > fuseops.DirOffset(len(entries)) {
		return nil
	}
	for _, e := range entries[op.Offset:] {
		n := fuseutil.WriteDirent(op.Dst[op.BytesRead:], e)
		if n == 0 {
			break
		}
		op.BytesRead += n
	}
	return nil
}

func (f *fs) indexOfTable(name string) int {
	for i, n := range f.tables {
		if n == name {
			return i
		}
	}
	return -1
}

func (f *fs) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) error { return nil }

func (f *fs) ReadFile(ctx context.Context, op *fuseops.ReadFileOp) error {
	tableIdx, rowID, ok := f.tableIndexFromRowInode(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	body, err := f.rowJSON(tableIdx, rowID)
	if err != nil {
		return xerrors.Errorf("fuseview: %w", err)
	}
	if int(op.Offset) >= len(body) {
		return nil
	}
	op.BytesRead = copy(op.Dst, body[op.Offset:])
	return nil
}

// Mounted is a mounted fuseview, joinable and unmountable.
type Mounted struct {
	mountpoint string
	mfs        *fuse.MountedFileSystem
}

// Mount mounts a read-only debug view of db at mountpoint.
func Mount(db *engine.Database, mountpoint string) (*Mounted, error) {
	root := &fs{db: db, tables: db.TableNames()}
	server := fuseutil.NewFileSystemServer(root)
	mfs, err := fuse.Mount(mountpoint, server, &fuse.MountConfig{
		FSName:   "awfuldb",
		ReadOnly: true,
	})
	if err != nil {
		return nil, xerrors.Errorf("fuseview: mount: %w", err)
	}
	return &Mounted{mountpoint: mountpoint, mfs: mfs}, nil
}

// Join blocks until the filesystem is unmounted or ctx is done.
func (m *Mounted) Join(ctx context.Context) error {
	return m.mfs.Join(ctx)
}

// Unmount unmounts the filesystem.
func (m *Mounted) Unmount() error {
	if err := fuse.Unmount(m.mountpoint); err != nil {
		return xerrors.Errorf("fuseview: unmount: %w", err)
	}
	return nil
}
