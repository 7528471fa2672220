// Package catalog persists and retrieves table schemas.
//
// EDUCATIONAL NOTES:
// ------------------
// Each table's schema lives in its own single-page ".def" file: a
// field count followed by that many (name, type) pairs, zero-padded to
// fill the page. Unlike a shared system-catalog page, this keeps
// schema lookup a one-page read keyed entirely by file name -- no
// scan, no in-memory table directory to keep in sync.
package catalog

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cabewaldrop/microdb/internal/dberrors"
	"github.com/cabewaldrop/microdb/internal/storage"
)

const (
	// MaxField bounds the number of fields a schema may declare.
	MaxField = 40

	// MaxFieldName bounds a field name's length, including the NUL
	// terminator: a name may use at most MaxFieldName-1 bytes.
	MaxFieldName = 20

	// MaxString bounds the length of a STRING field's value,
	// including its NUL terminator.
	MaxString = 20

	fieldInfoSize = MaxFieldName + 4 // name + int32 data type
)

// DataType identifies the type of a table field.
type DataType int32

const (
	TypeUnknown DataType = iota
	TypeInteger
	TypeString
)

func (t DataType) String() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeString:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// FieldInfo describes one field of a table schema.
type FieldInfo struct {
	Name string
	Type DataType
}

// TableInfo is a table's schema: an ordered list of fields. Field
// order is part of the schema and is reflected both in the definition
// file and in every record's byte layout.
type TableInfo struct {
	Fields []FieldInfo
}

// Validate checks a schema against the field-count and field-name
// capacity limits and rejects UNKNOWN field types.
func Validate(fields []FieldInfo) error {
	if len(fields) < 1 || len(fields) > MaxField {
		return fmt.Errorf("schema has %d fields, want 1..%d: %w", len(fields), MaxField, dberrors.ErrCapacityExceeded)
	}
	for _, f := range fields {
		if len(f.Name) == 0 || len(f.Name) > MaxFieldName-1 {
			return fmt.Errorf("field name %q exceeds %d bytes: %w", f.Name, MaxFieldName-1, dberrors.ErrCapacityExceeded)
		}
		if f.Type != TypeInteger && f.Type != TypeString {
			return fmt.Errorf("field %q has unsupported type %v: %w", f.Name, f.Type, dberrors.ErrSchemaMismatch)
		}
	}
	return nil
}

// Create writes schema to page 0 of defFile through pool. It checks
// the schema with Validate first and writes nothing if it is invalid;
// Database.CreateTable also validates before creating the table's
// files, so a bad schema never reaches disk.
func Create(pool *storage.BufferPool, defFile *storage.File, schema TableInfo) error {
	if err := Validate(schema.Fields); err != nil {
		return err
	}

	buf := make([]byte, storage.PageSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(schema.Fields)))

	offset := 4
	for _, f := range schema.Fields {
		copy(buf[offset:offset+MaxFieldName], f.Name) // rest is left zero: the NUL padding
		binary.LittleEndian.PutUint32(buf[offset+MaxFieldName:offset+fieldInfoSize], uint32(f.Type))
		offset += fieldInfoSize
	}

	if err := pool.WritePage(defFile, 0, buf); err != nil {
		return fmt.Errorf("write table definition to %s: %w", defFile.Name(), err)
	}
	return nil
}

// Read decodes the schema stored at page 0 of defFile.
func Read(pool *storage.BufferPool, defFile *storage.File) (TableInfo, error) {
	buf := make([]byte, storage.PageSize)
	if err := pool.ReadPage(defFile, 0, buf); err != nil {
		return TableInfo{}, fmt.Errorf("read table definition from %s: %w", defFile.Name(), err)
	}

	numField := int(int32(binary.LittleEndian.Uint32(buf[0:4])))
	if numField < 1 || numField > MaxField {
		return TableInfo{}, fmt.Errorf("table definition %s has corrupt field count %d: %w", defFile.Name(), numField, dberrors.ErrSchemaMismatch)
	}

	fields := make([]FieldInfo, numField)
	offset := 4
	for i := 0; i < numField; i++ {
		nameBytes := buf[offset : offset+MaxFieldName]
		nul := bytes.IndexByte(nameBytes, 0)
		name := string(nameBytes)
		if nul >= 0 {
			name = string(nameBytes[:nul])
		}
		dt := DataType(binary.LittleEndian.Uint32(buf[offset+MaxFieldName : offset+fieldInfoSize]))
		fields[i] = FieldInfo{Name: name, Type: dt}
		offset += fieldInfoSize
	}

	return TableInfo{Fields: fields}, nil
}
