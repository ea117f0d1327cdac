package ffdb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sixy6e/go-ffdb/record"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	paramRoot := t.TempDir()
	segRoot := t.TempDir()
	db, err := Open(paramRoot, segRoot, "%A/%Y/%j", 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.SetDefaultAuthor("alice"); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestOpenRejectsMissingRoots(t *testing.T) {
	if _, err := Open("/no/such/param", "/no/such/seg", "%Y", time.Hour); err != ErrNoParamRoot {
		t.Fatalf("expected ErrNoParamRoot, got %v", err)
	}
}

func TestValidateStructureRejectsUnknownToken(t *testing.T) {
	paramRoot := t.TempDir()
	segRoot := t.TempDir()
	if _, err := Open(paramRoot, segRoot, "%Q", time.Hour); err != ErrBadStructure {
		t.Fatalf("expected ErrBadStructure, got %v", err)
	}
}

func TestWriteThenReadStaticTableRoundTrip(t *testing.T) {
	db := openTestDB(t)
	sch, _ := db.Registry.Lookup("lastid")
	rec := record.New(sch)
	_ = rec.Set("keyname", "arid")
	_ = rec.Set("keyvalue", int64(42))
	_ = rec.Set("lddate", "2026-07-31 00:00:00")

	path := db.staticTablePath("lastid")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := record.WriteLine(rec, f); err != nil {
		t.Fatal(err)
	}
	f.Close()

	recs, err := db.ReadStaticTable("lastid")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	v, _ := recs[0].Get("keyname")
	if v != "arid" {
		t.Fatalf("got keyname=%v, want arid", v)
	}
}

func TestReadStaticTableMissingFileReturnsEmpty(t *testing.T) {
	db := openTestDB(t)
	recs, err := db.ReadStaticTable("site")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected empty slice for missing optional table, got %d", len(recs))
	}
}

func TestInsertTableThenDeleteLeavesNoTornFile(t *testing.T) {
	db := openTestDB(t)
	sch, _ := db.Registry.Lookup("wfdisc")
	rec := record.New(sch)
	_ = rec.Set("sta", "KDAK")
	_ = rec.Set("chan", "BHZ")
	_ = rec.Set("time", 1000.0)

	if err := db.InsertTable(rec, "alice"); err != nil {
		t.Fatal(err)
	}

	path := db.recordPath("wfdisc", "alice", "KDAK", 1000.0)
	rec.Provenance.Path = db.Pool.Intern(path)
	rec.Provenance.FileOffset = 0

	if err := db.DeleteTable(rec); err != nil {
		t.Fatal(err)
	}

	recs, err := db.readTableFile(path, sch)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected file to be empty after delete, got %d records", len(recs))
	}
}

func TestExpandStructureSubstitutesTokens(t *testing.T) {
	db := openTestDB(t)
	got := filepath.ToSlash(db.expandStructure(0, "alice", "KDAK"))
	if want := "alice/1970/001"; got != want {
		t.Fatalf("expandStructure = %q, want %q", got, want)
	}
}

func TestPeriodSetMergesOverlaps(t *testing.T) {
	ps := newPeriodSet(period{0, 10}, period{5, 15}, period{20, 30})
	if len(ps.periods) != 2 {
		t.Fatalf("expected 2 merged periods, got %d: %+v", len(ps.periods), ps.periods)
	}
	if !ps.Overlaps(8, 25) {
		t.Fatalf("expected overlap across merged periods")
	}
	if ps.Overlaps(16, 19) {
		t.Fatalf("did not expect overlap in the gap")
	}
}

func TestPeriodSetBounds(t *testing.T) {
	ps := newPeriodSet(period{5, 10}, period{20, 30})
	b, ok := ps.Bounds()
	if !ok || b.Start != 5 || b.End != 30 {
		t.Fatalf("got %+v, %v; want {5 30}, true", b, ok)
	}
}
