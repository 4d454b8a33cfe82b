// Package engine implements the operation executor (spec §4.6): it
// interprets TableCreate/TableInsert/TableQuery against a Database,
// marshaling typed values in and out via internal/codec, and owns the
// single process-local exclusive lock a request batch executes under
// (spec §5).
package engine

import (
	"os"
	"sync"

	"github.com/griffi-gh/awfuldb/internal/dberr"
	"github.com/griffi-gh/awfuldb/internal/header"
	"github.com/griffi-gh/awfuldb/internal/shape"
	"github.com/griffi-gh/awfuldb/internal/storage"
)

// Database is the single entry point into the engine: one backing file,
// one in-memory shape/header cache, one exclusive lock held for the
// duration of each batch.
type Database struct {
	mu sync.Mutex
	st *storage.Storage
}

// Create initializes a brand new database in file: an empty shape and a
// default header, written and synced immediately so the file is
// immediately a valid (if empty) database.
func Create(file *os.File) (*Database, error) {
	st, err := storage.Open(file)
	if err != nil {
		return nil, err
	}
	st.Header = header.Default()
	st.Shape = shape.New()
	st.MarkShapeDirty()
	db := &Database{st: st}
	if err := db.Sync(); err != nil {
		st.Close()
		return nil, err
	}
	return db, nil
}

// Open loads an existing database from file.
func Open(file *os.File) (*Database, error) {
	st, err := storage.Open(file)
	if err != nil {
		return nil, err
	}
	if err := st.ReadDatabase(); err != nil {
		st.Close()
		return nil, err
	}
	return &Database{st: st}, nil
}

// Close releases the backing file. Callers should Sync first.
func (d *Database) Close() error {
	return d.st.Close()
}

// Sync flushes dirty in-memory state to the backing container and then
// flushes the container to stable storage (spec §4.4's sync_database +
// sync_fs), truncating any excess trailing length.
func (d *Database) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.st.SyncDatabase(); err != nil {
		return err
	}
	if err := d.st.Truncate(); err != nil {
		return err
	}
	return d.st.SyncFS()
}

// Optimize is a documented no-op, reserved for future defragmentation
// (spec §4.7/§4.8).
func (d *Database) Optimize() error { return nil }

// PerformBatch executes ops strictly in order, aborting the batch on the
// first error. In-memory mutations made before the error are not rolled
// back; they are simply never synced, since Sync is a separate call the
// transport layer only makes after a successful batch (spec §7).
func (d *Database) PerformBatch(ops []Operation) ([]Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	results := make([]Result, 0, len(ops))
	for _, op := range ops {
		res, err := d.perform(op)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (d *Database) perform(op Operation) (Result, error) {
	switch op.Type {
	case "TableCreate":
		return NoResult(), d.performTableCreate(op.TableCreate)
	case "TableInsert":
		return NoResult(), d.performTableInsert(op.TableInsert)
	case "TableQuery":
		return d.performTableQuery(op.TableQuery)
	default:
		return Result{}, dberr.New(dberr.NotImplemented, "engine: unknown operation type %q", op.Type)
	}
}
