// Package engine wires the buffer pool, catalog, and record packages
// behind the five structured operations a client issues: create table,
// drop table, insert, select, delete.
//
// EDUCATIONAL NOTES:
// ------------------
// A Database owns one buffer pool and a directory of file handles, one
// entry per table, keyed by table name. Files are opened once -- at
// CreateTable, or by Open's scan for tables already on disk -- and
// stay open for the Database's lifetime, so the
// buffer pool's cache is meaningful across repeated operations on the
// same table rather than starting cold every call.
//
// Database is not safe for concurrent use: the storage core beneath it
// has no locks, by design (see internal/storage).
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cabewaldrop/microdb/internal/catalog"
	"github.com/cabewaldrop/microdb/internal/dberrors"
	"github.com/cabewaldrop/microdb/internal/record"
	"github.com/cabewaldrop/microdb/internal/storage"
)

const (
	defSuffix = ".def"
	datSuffix = ".dat"
)

// openTable holds the two file handles backing one table: its schema
// file and its row file.
type openTable struct {
	def    *storage.File
	dat    *storage.File
	schema catalog.TableInfo
}

// Database is a MicroDB instance rooted at a single directory on disk.
type Database struct {
	dir    string
	pool   *storage.BufferPool
	tables map[string]*openTable
}

// Open opens (or creates, if absent) dir and discovers any tables
// already defined there by scanning for "*.def" files, so a Database
// re-opened against existing data picks its tables back up.
func Open(dir string) (*Database, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("open database at %s: %w", dir, err)
	}

	db := &Database{
		dir:    dir,
		pool:   storage.NewBufferPool(),
		tables: make(map[string]*openTable),
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), defSuffix) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), defSuffix)
		if _, err := db.open(name); err != nil {
			db.Close()
			return nil, fmt.Errorf("open database at %s: reopen table %q: %w", dir, name, err)
		}
	}
	return db, nil
}

func (db *Database) defPath(name string) string {
	return filepath.Join(db.dir, name+defSuffix)
}

func (db *Database) datPath(name string) string {
	return filepath.Join(db.dir, name+datSuffix)
}

// open loads an existing table's files and schema into db.tables.
func (db *Database) open(name string) (*openTable, error) {
	if t, ok := db.tables[name]; ok {
		return t, nil
	}

	def, err := storage.OpenFile(db.defPath(name))
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", name, err)
	}
	schema, err := catalog.Read(db.pool, def)
	if err != nil {
		def.Close()
		return nil, fmt.Errorf("table %q: %w", name, err)
	}
	dat, err := storage.OpenFile(db.datPath(name))
	if err != nil {
		def.Close()
		return nil, fmt.Errorf("table %q: %w", name, err)
	}

	t := &openTable{def: def, dat: dat, schema: schema}
	db.tables[name] = t
	return t, nil
}

// CreateTable validates schema, writes name.def, creates an empty
// name.dat, and registers the table for subsequent operations. If
// name.dat cannot be created, the just-written name.def is removed on
// a best-effort basis so a failed CreateTable does not leave a
// half-created table behind.
func (db *Database) CreateTable(name string, fields []catalog.FieldInfo) error {
	if _, exists := db.tables[name]; exists {
		return fmt.Errorf("create table %q: already exists: %w", name, dberrors.ErrSchemaMismatch)
	}
	schema := catalog.TableInfo{Fields: fields}
	if err := catalog.Validate(schema.Fields); err != nil {
		return fmt.Errorf("create table %q: %w", name, err)
	}

	defPath := db.defPath(name)
	if err := storage.CreateFile(defPath); err != nil {
		return fmt.Errorf("create table %q: %w", name, err)
	}
	def, err := storage.OpenFile(defPath)
	if err != nil {
		os.Remove(defPath)
		return fmt.Errorf("create table %q: %w", name, err)
	}
	if err := catalog.Create(db.pool, def, schema); err != nil {
		def.Close()
		os.Remove(defPath)
		return fmt.Errorf("create table %q: %w", name, err)
	}

	datPath := db.datPath(name)
	if err := storage.CreateFile(datPath); err != nil {
		def.Close()
		os.Remove(defPath) // best-effort cleanup of the half-created table
		return fmt.Errorf("create table %q: %w", name, err)
	}
	dat, err := storage.OpenFile(datPath)
	if err != nil {
		def.Close()
		os.Remove(defPath)
		os.Remove(datPath)
		return fmt.Errorf("create table %q: %w", name, err)
	}

	db.tables[name] = &openTable{def: def, dat: dat, schema: schema}
	return nil
}

// DropTable closes and removes name's files and forgets it.
func (db *Database) DropTable(name string) error {
	t, ok := db.tables[name]
	if !ok {
		return fmt.Errorf("drop table %q: %w", name, dberrors.ErrCatalogMissing)
	}
	delete(db.tables, name)

	var firstErr error
	if err := db.pool.CloseFile(t.def); err != nil {
		firstErr = err
	}
	if err := db.pool.CloseFile(t.dat); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := os.Remove(db.defPath(name)); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := os.Remove(db.datPath(name)); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return fmt.Errorf("drop table %q: %w", name, firstErr)
	}
	return nil
}

func (db *Database) lookup(name string) (*openTable, error) {
	if t, ok := db.tables[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("table %q: %w", name, dberrors.ErrCatalogMissing)
}

// Insert writes one row into name.
func (db *Database) Insert(name string, values []record.FieldData) error {
	t, err := db.lookup(name)
	if err != nil {
		return err
	}
	return record.Insert(db.pool, t.dat, t.schema, record.RecordData{Fields: values})
}

// Select returns every row of name matching cond.
func (db *Database) Select(name string, cond record.Condition) (record.RecordSet, error) {
	t, err := db.lookup(name)
	if err != nil {
		return record.RecordSet{}, err
	}
	return record.Select(db.pool, t.dat, t.schema, cond)
}

// Delete removes every row of name matching cond.
func (db *Database) Delete(name string, cond record.Condition) error {
	t, err := db.lookup(name)
	if err != nil {
		return err
	}
	return record.Delete(db.pool, t.dat, t.schema, cond)
}

// Schema returns name's table schema.
func (db *Database) Schema(name string) (catalog.TableInfo, error) {
	t, err := db.lookup(name)
	if err != nil {
		return catalog.TableInfo{}, err
	}
	return t.schema, nil
}

// Close flushes every dirty buffered page and closes every open file
// handle. It must be called before the process exits.
func (db *Database) Close() error {
	var firstErr error
	if err := db.pool.Finalize(); err != nil {
		firstErr = err
	}
	for _, t := range db.tables {
		if err := t.def.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := t.dat.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	db.tables = make(map[string]*openTable)
	if firstErr != nil {
		return fmt.Errorf("close database at %s: %w", db.dir, firstErr)
	}
	return nil
}
