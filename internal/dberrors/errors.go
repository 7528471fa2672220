// Package dberrors names the failure kinds the storage core must be able
// to distinguish: host I/O, capacity limits, schema mismatches, and so
// on. Every package below wraps one of these sentinels with
// fmt.Errorf("...: %w", ...) so callers can use errors.Is instead of
// matching strings.
package dberrors

import "errors"

var (
	// ErrHostIO covers create/delete/open/close/read/write/seek/stat
	// failures on the underlying file system.
	ErrHostIO = errors.New("host I/O failure")

	// ErrOutOfMemory covers allocation failures for TableInfo,
	// RecordData, and RecordSet. Go's allocator does not return a
	// recoverable error the way C's malloc does, and no package in this
	// module returns this sentinel.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrSchemaMismatch covers a condition referencing an unknown
	// field, or an insert payload whose types or arity do not match
	// the table's schema.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrCatalogMissing covers an operation referencing a table whose
	// definition file does not exist.
	ErrCatalogMissing = errors.New("catalog missing")

	// ErrCapacityExceeded covers a schema with more than MAX_FIELD
	// fields, or a field name longer than MAX_FIELD_NAME permits.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrFileNotFound is the file layer's own "no such file" signal.
	// The original C module returns a -1 sentinel from getNumPages for
	// this case; returning a distinguishable error is the idiomatic
	// Go equivalent. It is not converted to ErrCatalogMissing: the
	// engine reports an unknown table as ErrCatalogMissing from its own
	// table registry.
	ErrFileNotFound = errors.New("file not found")
)
