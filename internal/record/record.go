// Package record implements the fixed-size record codec and the
// insert/select/delete operations that scan .dat files through the
// buffer pool.
//
// EDUCATIONAL NOTES:
// ------------------
// A table's rows live in a dense array of fixed-size slots, one page
// at a time: byte 0 of every slot is a one-byte live/free flag, and a
// record never straddles a page boundary. Insert reuses the first free
// slot it finds scanning in page, then slot, order; if none is free it
// appends a new page. Select and delete both do the same left-to-right
// scan, which is why insertion order determines the physical slot
// order subsequent scans observe.
package record

import (
	"encoding/binary"
	"fmt"

	"github.com/cabewaldrop/microdb/internal/catalog"
	"github.com/cabewaldrop/microdb/internal/dberrors"
	"github.com/cabewaldrop/microdb/internal/storage"
)

// MaxString bounds the length of a STRING field's value, including its
// NUL terminator.
const MaxString = catalog.MaxString

const (
	flagFree = 0
	flagLive = 1
	flagSize = 1
	intSize  = 8 // int64, little-endian: the fixed-width successor to the
	// original C source's host-width int (see the portability note in
	// SPEC_FULL.md).
)

// Operator is a condition's comparison operator.
type Operator int

const (
	OpEqual Operator = iota
	OpNotEqual
	OpGreaterThan
	OpLessThan
)

func (op Operator) String() string {
	switch op {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "!="
	case OpGreaterThan:
		return ">"
	case OpLessThan:
		return "<"
	default:
		return "?"
	}
}

// FieldData is one field's value within a record.
type FieldData struct {
	Name        string
	Type        catalog.DataType
	IntValue    int64
	StringValue string
}

// RecordData is one record: an ordered list of FieldData whose order
// must match the owning table's schema.
type RecordData struct {
	Fields []FieldData
}

// Equal reports whether two records are field-by-field equal: same
// names, types, and values, in order.
func (r RecordData) Equal(other RecordData) bool {
	if len(r.Fields) != len(other.Fields) {
		return false
	}
	for i := range r.Fields {
		if r.Fields[i] != other.Fields[i] {
			return false
		}
	}
	return true
}

// RecordSet is an ordered, possibly-empty collection of records in
// file traversal order.
type RecordSet struct {
	Records []RecordData
}

// Condition is the predicate used by Select and Delete.
type Condition struct {
	FieldName   string
	Type        catalog.DataType
	Operator    Operator
	IntValue    int64
	StringValue string
	Distinct    bool
}

// fieldWidth returns the number of bytes a field of the given type
// occupies in a record's byte image.
func fieldWidth(t catalog.DataType) (int, error) {
	switch t {
	case catalog.TypeInteger:
		return intSize, nil
	case catalog.TypeString:
		return MaxString, nil
	default:
		return 0, fmt.Errorf("field type %v: %w", t, dberrors.ErrSchemaMismatch)
	}
}

// Size returns the number of bytes one record of the given schema
// occupies: the one-byte live/free flag plus the sum of each field's
// width.
func Size(schema catalog.TableInfo) (int, error) {
	total := flagSize
	for _, f := range schema.Fields {
		w, err := fieldWidth(f.Type)
		if err != nil {
			return 0, err
		}
		total += w
	}
	return total, nil
}

// PerPage returns how many fixed-size record slots fit in one page,
// given the schema's record size. Slots never straddle a page
// boundary, so any remainder bytes at the end of a page go unused.
func PerPage(recordSize int) int {
	return storage.PageSize / recordSize
}

// resolveFieldIndex returns the position of name within schema, or a
// wrapped ErrSchemaMismatch if no field by that name exists. Computing
// this once per query (rather than per record scanned) is what keeps
// the scan loop an array index instead of a name comparison.
func resolveFieldIndex(schema catalog.TableInfo, name string) (int, error) {
	for i, f := range schema.Fields {
		if f.Name == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("field %q: %w", name, dberrors.ErrSchemaMismatch)
}

// encode builds the byte image of rec -- [flag=1][field bytes in
// schema order] -- ready to be copied into a slot.
func encode(schema catalog.TableInfo, rec RecordData) ([]byte, error) {
	if len(rec.Fields) != len(schema.Fields) {
		return nil, fmt.Errorf("record has %d fields, schema has %d: %w", len(rec.Fields), len(schema.Fields), dberrors.ErrSchemaMismatch)
	}

	size, err := Size(schema)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	buf[0] = flagLive

	offset := flagSize
	for i, sf := range schema.Fields {
		fd := rec.Fields[i]
		if fd.Type != sf.Type {
			return nil, fmt.Errorf("field %q: value type %v does not match schema type %v: %w", sf.Name, fd.Type, sf.Type, dberrors.ErrSchemaMismatch)
		}
		switch sf.Type {
		case catalog.TypeInteger:
			binary.LittleEndian.PutUint64(buf[offset:offset+intSize], uint64(fd.IntValue))
			offset += intSize
		case catalog.TypeString:
			s := fd.StringValue
			if len(s) > MaxString-1 {
				s = s[:MaxString-1]
			}
			copy(buf[offset:offset+MaxString], s) // rest stays zero: the NUL padding
			offset += MaxString
		}
	}
	return buf, nil
}

// decode reads one slot's bytes (flag byte included; decode skips it)
// into a RecordData using schema's field order and types.
func decode(schema catalog.TableInfo, slot []byte) RecordData {
	fields := make([]FieldData, len(schema.Fields))
	offset := flagSize
	for i, sf := range schema.Fields {
		switch sf.Type {
		case catalog.TypeInteger:
			v := int64(binary.LittleEndian.Uint64(slot[offset : offset+intSize]))
			fields[i] = FieldData{Name: sf.Name, Type: sf.Type, IntValue: v}
			offset += intSize
		case catalog.TypeString:
			raw := slot[offset : offset+MaxString]
			nul := indexByteZero(raw)
			s := string(raw)
			if nul >= 0 {
				s = string(raw[:nul])
			}
			fields[i] = FieldData{Name: sf.Name, Type: sf.Type, StringValue: s}
			offset += MaxString
		}
	}
	return RecordData{Fields: fields}
}

func indexByteZero(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}
