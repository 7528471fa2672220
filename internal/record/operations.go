// operations.go implements insert, select, and delete over a table's
// .dat file, and the condition evaluation they share.
package record

import (
	"fmt"

	"github.com/cabewaldrop/microdb/internal/catalog"
	"github.com/cabewaldrop/microdb/internal/storage"
)

// Insert writes rec into the first free slot found scanning datFile
// page by page, slot by slot. If every existing page is full, it
// appends a new page and places rec in that page's first slot.
func Insert(pool *storage.BufferPool, datFile *storage.File, schema catalog.TableInfo, rec RecordData) error {
	image, err := encode(schema, rec)
	if err != nil {
		return err
	}
	recordSize := len(image)
	perPage := PerPage(recordSize)
	numPages := datFile.PageCount()

	page := make([]byte, storage.PageSize)
	for p := 0; p < numPages; p++ {
		if err := pool.ReadPage(datFile, p, page); err != nil {
			return fmt.Errorf("insert into %s: %w", datFile.Name(), err)
		}
		for j := 0; j < perPage; j++ {
			off := j * recordSize
			if page[off] != flagFree {
				continue
			}
			copy(page[off:off+recordSize], image)
			if err := pool.WritePage(datFile, p, page); err != nil {
				return fmt.Errorf("insert into %s: %w", datFile.Name(), err)
			}
			return nil
		}
	}

	fresh := make([]byte, storage.PageSize)
	copy(fresh[0:recordSize], image)
	if err := pool.WritePage(datFile, numPages, fresh); err != nil {
		return fmt.Errorf("insert into %s: %w", datFile.Name(), err)
	}
	return nil
}

// Select scans datFile in page and slot order, decoding every live
// slot and keeping the ones that satisfy cond. When cond.Distinct is
// set, a candidate that is field-by-field equal to a record already in
// the result is dropped.
func Select(pool *storage.BufferPool, datFile *storage.File, schema catalog.TableInfo, cond Condition) (RecordSet, error) {
	fieldIdx, err := resolveFieldIndex(schema, cond.FieldName)
	if err != nil {
		return RecordSet{}, err
	}

	recordSize, err := Size(schema)
	if err != nil {
		return RecordSet{}, err
	}
	perPage := PerPage(recordSize)
	numPages := datFile.PageCount()

	var out RecordSet
	page := make([]byte, storage.PageSize)
	for p := 0; p < numPages; p++ {
		if err := pool.ReadPage(datFile, p, page); err != nil {
			return RecordSet{}, fmt.Errorf("select from %s: %w", datFile.Name(), err)
		}
		for j := 0; j < perPage; j++ {
			off := j * recordSize
			if page[off] == flagFree {
				continue
			}
			rec := decode(schema, page[off:off+recordSize])

			match, err := evaluateAt(rec, cond, fieldIdx)
			if err != nil {
				return RecordSet{}, err
			}
			if !match {
				continue
			}

			if cond.Distinct && containsExact(out.Records, rec) {
				continue
			}
			out.Records = append(out.Records, rec)
		}
	}
	return out, nil
}

// Delete scans datFile in page order and clears the live flag of every
// slot whose decoded record satisfies cond. A page is written back
// only if at least one of its slots was modified.
func Delete(pool *storage.BufferPool, datFile *storage.File, schema catalog.TableInfo, cond Condition) error {
	fieldIdx, err := resolveFieldIndex(schema, cond.FieldName)
	if err != nil {
		return err
	}

	recordSize, err := Size(schema)
	if err != nil {
		return err
	}
	perPage := PerPage(recordSize)
	numPages := datFile.PageCount()

	page := make([]byte, storage.PageSize)
	for p := 0; p < numPages; p++ {
		if err := pool.ReadPage(datFile, p, page); err != nil {
			return fmt.Errorf("delete from %s: %w", datFile.Name(), err)
		}

		modified := false
		for j := 0; j < perPage; j++ {
			off := j * recordSize
			if page[off] == flagFree {
				continue
			}
			rec := decode(schema, page[off:off+recordSize])
			match, err := evaluateAt(rec, cond, fieldIdx)
			if err != nil {
				return err
			}
			if match {
				page[off] = flagFree
				modified = true
			}
		}

		if modified {
			if err := pool.WritePage(datFile, p, page); err != nil {
				return fmt.Errorf("delete from %s: %w", datFile.Name(), err)
			}
		}
	}
	return nil
}

// EvaluateCondition evaluates cond against rec under schema, looking
// up the field by name. Select and Delete use the faster evaluateAt
// with a precomputed index instead of calling this per record.
func EvaluateCondition(schema catalog.TableInfo, rec RecordData, cond Condition) (bool, error) {
	idx, err := resolveFieldIndex(schema, cond.FieldName)
	if err != nil {
		return false, err
	}
	return evaluateAt(rec, cond, idx)
}

// evaluateAt evaluates cond against rec.Fields[idx]. If the field's
// type does not match the condition's declared type, the predicate is
// false, not an error -- only an unresolvable field name is an error.
func evaluateAt(rec RecordData, cond Condition, idx int) (bool, error) {
	fd := rec.Fields[idx]
	if fd.Type != cond.Type {
		return false, nil
	}

	switch cond.Type {
	case catalog.TypeInteger:
		switch cond.Operator {
		case OpEqual:
			return fd.IntValue == cond.IntValue, nil
		case OpNotEqual:
			return fd.IntValue != cond.IntValue, nil
		case OpGreaterThan:
			return fd.IntValue > cond.IntValue, nil
		case OpLessThan:
			return fd.IntValue < cond.IntValue, nil
		}
	case catalog.TypeString:
		// Go compares strings byte-wise as unsigned byte sequences,
		// which is exactly the ordering the spec calls for.
		switch cond.Operator {
		case OpEqual:
			return fd.StringValue == cond.StringValue, nil
		case OpNotEqual:
			return fd.StringValue != cond.StringValue, nil
		case OpGreaterThan:
			return fd.StringValue > cond.StringValue, nil
		case OpLessThan:
			return fd.StringValue < cond.StringValue, nil
		}
	}
	return false, fmt.Errorf("unsupported operator %v for type %v", cond.Operator, cond.Type)
}

func containsExact(records []RecordData, rec RecordData) bool {
	for _, r := range records {
		if r.Equal(rec) {
			return true
		}
	}
	return false
}
