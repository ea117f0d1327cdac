package record

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sixy6e/go-ffdb/quark"
	"github.com/sixy6e/go-ffdb/schema"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	r := schema.NewRegistry()
	schema.RegisterKnown(r)
	return r
}

func TestNewFillsNulls(t *testing.T) {
	reg := testRegistry(t)
	sch, err := reg.Lookup("wfdisc")
	if err != nil {
		t.Fatal(err)
	}
	rec := New(sch)
	sta, err := rec.Get("sta")
	if err != nil {
		t.Fatal(err)
	}
	if sta != "-" {
		t.Fatalf("sta = %q, want null sentinel -", sta)
	}
	wfid, err := rec.Get("wfid")
	if err != nil {
		t.Fatal(err)
	}
	if wfid != int64(-1) {
		t.Fatalf("wfid = %v, want -1", wfid)
	}
}

func TestSetAndGetRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	sch, _ := reg.Lookup("wfdisc")
	rec := New(sch)
	if err := rec.Set("sta", "KDAK"); err != nil {
		t.Fatal(err)
	}
	v, err := rec.Get("sta")
	if err != nil {
		t.Fatal(err)
	}
	if v != "KDAK" {
		t.Fatalf("sta = %v, want KDAK", v)
	}
}

func TestSetTypeMismatch(t *testing.T) {
	reg := testRegistry(t)
	sch, _ := reg.Lookup("wfdisc")
	rec := New(sch)
	if err := rec.Set("wfid", "not-an-int"); err == nil {
		t.Fatalf("Set should reject a string for a long column")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	reg := testRegistry(t)
	sch, _ := reg.Lookup("lastid")
	rec := New(sch)
	_ = rec.Set("keyname", "arid")
	clone := rec.Clone()
	_ = clone.Set("keyname", "orid")

	orig, _ := rec.Get("keyname")
	cloned, _ := clone.Get("keyname")
	if orig != "arid" || cloned != "orid" {
		t.Fatalf("clone shares state: orig=%v cloned=%v", orig, cloned)
	}
}

func TestWriteLineThenReadLineRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	sch, _ := reg.Lookup("lastid")
	rec := New(sch)
	_ = rec.Set("keyname", "arid")
	_ = rec.Set("keyvalue", int64(4217))
	_ = rec.Set("lddate", "2024-01-02")

	var buf bytes.Buffer
	if err := WriteLine(rec, &buf); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	if buf.Len() != sch.LineLength {
		t.Fatalf("WriteLine produced %d bytes, want %d", buf.Len(), sch.LineLength)
	}

	pool := quark.NewPool()
	out := New(sch)
	if err := ReadLine(out, bytes.NewReader(buf.Bytes()), pool); err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if !out.Loaded {
		t.Fatalf("ReadLine did not mark the record Loaded")
	}
	keyname, _ := out.Get("keyname")
	if keyname != "arid" {
		t.Fatalf("round-tripped keyname = %v, want arid", keyname)
	}
	keyvalue, _ := out.Get("keyvalue")
	if keyvalue != int64(4217) {
		t.Fatalf("round-tripped keyvalue = %v, want 4217", keyvalue)
	}
}

func TestReadLineRejectsShortLine(t *testing.T) {
	reg := testRegistry(t)
	sch, _ := reg.Lookup("lastid")
	pool := quark.NewPool()
	rec := New(sch)
	if err := ReadLine(rec, strings.NewReader("too short\n"), pool); err == nil {
		t.Fatalf("ReadLine should reject a line shorter than the schema's LineLength")
	}
}

func TestFindAndSortBy(t *testing.T) {
	reg := testRegistry(t)
	sch, _ := reg.Lookup("wfdisc")
	a := New(sch)
	_ = a.Set("sta", "BBB")
	b := New(sch)
	_ = b.Set("sta", "AAA")

	recs := []*Record{a, b}
	if err := SortBy(recs, "sta"); err != nil {
		t.Fatalf("SortBy: %v", err)
	}
	first, _ := recs[0].Get("sta")
	if first != "AAA" {
		t.Fatalf("after SortBy first sta = %v, want AAA", first)
	}

	found, ok := Find(recs, "sta", "BBB")
	if !ok || found != a {
		t.Fatalf("Find did not locate the BBB record")
	}
}
