package record

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/cabewaldrop/microdb/internal/catalog"
	"github.com/cabewaldrop/microdb/internal/dberrors"
	"github.com/cabewaldrop/microdb/internal/storage"
)

func newDataFile(t *testing.T) *storage.File {
	t.Helper()
	name := filepath.Join(t.TempDir(), "t.dat")
	if err := storage.CreateFile(name); err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}
	f, err := storage.OpenFile(name)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func employeesSchema() catalog.TableInfo {
	return catalog.TableInfo{Fields: []catalog.FieldInfo{
		{Name: "id", Type: catalog.TypeInteger},
		{Name: "name", Type: catalog.TypeString},
	}}
}

func idValue(n int64) FieldData {
	return FieldData{Name: "id", Type: catalog.TypeInteger, IntValue: n}
}

func nameValue(s string) FieldData {
	return FieldData{Name: "name", Type: catalog.TypeString, StringValue: s}
}

func idEquals(n int64) Condition {
	return Condition{FieldName: "id", Type: catalog.TypeInteger, Operator: OpEqual, IntValue: n}
}

// TestInsertSelectRoundTrip is scenario 1 from the spec: create
// employees(id, name), insert two rows, select id = 2 returns exactly
// that row.
func TestInsertSelectRoundTrip(t *testing.T) {
	f := newDataFile(t)
	pool := storage.NewBufferPool()
	schema := employeesSchema()

	if err := Insert(pool, f, schema, RecordData{Fields: []FieldData{idValue(1), nameValue("alice")}}); err != nil {
		t.Fatalf("Insert(1) failed: %v", err)
	}
	if err := Insert(pool, f, schema, RecordData{Fields: []FieldData{idValue(2), nameValue("bob")}}); err != nil {
		t.Fatalf("Insert(2) failed: %v", err)
	}

	rs, err := Select(pool, f, schema, idEquals(2))
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(rs.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(rs.Records))
	}
	want := RecordData{Fields: []FieldData{idValue(2), nameValue("bob")}}
	if !rs.Records[0].Equal(want) {
		t.Errorf("expected %+v, got %+v", want, rs.Records[0])
	}
}

// TestDeleteThenInsertReusesSlot is scenario 2: delete alice, insert
// carol, and select id > 0 returns carol before bob because carol
// reused alice's freed slot 0.
func TestDeleteThenInsertReusesSlot(t *testing.T) {
	f := newDataFile(t)
	pool := storage.NewBufferPool()
	schema := employeesSchema()

	mustInsert := func(id int64, name string) {
		t.Helper()
		if err := Insert(pool, f, schema, RecordData{Fields: []FieldData{idValue(id), nameValue(name)}}); err != nil {
			t.Fatalf("Insert(%d) failed: %v", id, err)
		}
	}
	mustInsert(1, "alice")
	mustInsert(2, "bob")

	if err := Delete(pool, f, schema, Condition{FieldName: "name", Type: catalog.TypeString, Operator: OpEqual, StringValue: "alice"}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	mustInsert(3, "carol")

	rs, err := Select(pool, f, schema, Condition{FieldName: "id", Type: catalog.TypeInteger, Operator: OpGreaterThan, IntValue: 0})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(rs.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(rs.Records))
	}
	wantFirst := RecordData{Fields: []FieldData{idValue(3), nameValue("carol")}}
	wantSecond := RecordData{Fields: []FieldData{idValue(2), nameValue("bob")}}
	if !rs.Records[0].Equal(wantFirst) {
		t.Errorf("expected first record %+v, got %+v", wantFirst, rs.Records[0])
	}
	if !rs.Records[1].Equal(wantSecond) {
		t.Errorf("expected second record %+v, got %+v", wantSecond, rs.Records[1])
	}
}

// TestSelectDistinct is scenario 3: insert (1),(1),(2) on a single-int
// schema; select x=1 distinct returns one record, non-distinct returns
// two.
func TestSelectDistinct(t *testing.T) {
	f := newDataFile(t)
	pool := storage.NewBufferPool()
	schema := catalog.TableInfo{Fields: []catalog.FieldInfo{{Name: "x", Type: catalog.TypeInteger}}}

	for _, v := range []int64{1, 1, 2} {
		rec := RecordData{Fields: []FieldData{{Name: "x", Type: catalog.TypeInteger, IntValue: v}}}
		if err := Insert(pool, f, schema, rec); err != nil {
			t.Fatalf("Insert(%d) failed: %v", v, err)
		}
	}

	distinctCond := Condition{FieldName: "x", Type: catalog.TypeInteger, Operator: OpEqual, IntValue: 1, Distinct: true}
	rs, err := Select(pool, f, schema, distinctCond)
	if err != nil {
		t.Fatalf("distinct Select failed: %v", err)
	}
	if len(rs.Records) != 1 {
		t.Fatalf("expected 1 distinct record, got %d", len(rs.Records))
	}

	plainCond := distinctCond
	plainCond.Distinct = false
	rs, err = Select(pool, f, schema, plainCond)
	if err != nil {
		t.Fatalf("plain Select failed: %v", err)
	}
	if len(rs.Records) != 2 {
		t.Fatalf("expected 2 records without distinct, got %d", len(rs.Records))
	}
}

// TestPageExtensionOnFullPage is scenario 4: filling one page
// completely and inserting once more grows the file from 1 to 2 pages,
// with the new record at page 1 slot 0.
func TestPageExtensionOnFullPage(t *testing.T) {
	f := newDataFile(t)
	pool := storage.NewBufferPool()
	schema := catalog.TableInfo{Fields: []catalog.FieldInfo{{Name: "x", Type: catalog.TypeInteger}}}

	recordSize, err := Size(schema)
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	perPage := PerPage(recordSize)

	for i := 0; i < perPage; i++ {
		rec := RecordData{Fields: []FieldData{{Name: "x", Type: catalog.TypeInteger, IntValue: int64(i)}}}
		if err := Insert(pool, f, schema, rec); err != nil {
			t.Fatalf("Insert(%d) failed: %v", i, err)
		}
	}
	if f.PageCount() != 1 {
		t.Fatalf("expected 1 page after filling it, got %d", f.PageCount())
	}

	overflow := RecordData{Fields: []FieldData{{Name: "x", Type: catalog.TypeInteger, IntValue: 999}}}
	if err := Insert(pool, f, schema, overflow); err != nil {
		t.Fatalf("overflow Insert failed: %v", err)
	}
	if f.PageCount() != 2 {
		t.Fatalf("expected 2 pages after overflow insert, got %d", f.PageCount())
	}

	rs, err := Select(pool, f, schema, Condition{FieldName: "x", Type: catalog.TypeInteger, Operator: OpEqual, IntValue: 999})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(rs.Records) != 1 {
		t.Fatalf("expected to find the overflow record, got %d matches", len(rs.Records))
	}
}

func TestDeleteFinality(t *testing.T) {
	f := newDataFile(t)
	pool := storage.NewBufferPool()
	schema := employeesSchema()

	if err := Insert(pool, f, schema, RecordData{Fields: []FieldData{idValue(1), nameValue("alice")}}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := Delete(pool, f, schema, idEquals(1)); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	rs, err := Select(pool, f, schema, idEquals(1))
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(rs.Records) != 0 {
		t.Errorf("expected empty result after delete, got %d records", len(rs.Records))
	}
}

func TestSelectUnknownFieldIsAnError(t *testing.T) {
	f := newDataFile(t)
	pool := storage.NewBufferPool()
	schema := employeesSchema()

	_, err := Select(pool, f, schema, Condition{FieldName: "nope", Type: catalog.TypeInteger, Operator: OpEqual})
	if !errors.Is(err, dberrors.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestStringOrdering(t *testing.T) {
	f := newDataFile(t)
	pool := storage.NewBufferPool()
	schema := catalog.TableInfo{Fields: []catalog.FieldInfo{{Name: "name", Type: catalog.TypeString}}}

	for _, s := range []string{"alice", "bob", "carol"} {
		rec := RecordData{Fields: []FieldData{{Name: "name", Type: catalog.TypeString, StringValue: s}}}
		if err := Insert(pool, f, schema, rec); err != nil {
			t.Fatalf("Insert(%s) failed: %v", s, err)
		}
	}

	rs, err := Select(pool, f, schema, Condition{FieldName: "name", Type: catalog.TypeString, Operator: OpGreaterThan, StringValue: "bob"})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(rs.Records) != 1 || rs.Records[0].Fields[0].StringValue != "carol" {
		t.Errorf("expected only carol > bob, got %+v", rs.Records)
	}
}

func TestInsertArityMismatch(t *testing.T) {
	f := newDataFile(t)
	pool := storage.NewBufferPool()
	schema := employeesSchema()

	err := Insert(pool, f, schema, RecordData{Fields: []FieldData{idValue(1)}})
	if !errors.Is(err, dberrors.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
