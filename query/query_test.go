package query

import (
	"testing"

	"github.com/sixy6e/go-ffdb/record"
	"github.com/sixy6e/go-ffdb/schema"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()
	wfdiscCols := []schema.Column{
		{Name: "sta", Type: schema.String},
		{Name: "chan", Type: schema.String},
		{Name: "time", Type: schema.Double},
		{Name: "wfid", Type: schema.Long},
	}
	if err := reg.DefineDynamic("wfdisc", wfdiscCols, 200); err != nil {
		t.Fatalf("DefineDynamic wfdisc: %v", err)
	}
	siteCols := []schema.Column{
		{Name: "sta", Type: schema.String},
		{Name: "staname", Type: schema.String},
	}
	if err := reg.DefineDynamic("site", siteCols, 100); err != nil {
		t.Fatalf("DefineDynamic site: %v", err)
	}
	return reg
}

func newRow(t *testing.T, reg *schema.Registry, table string, values map[string]string) *record.Record {
	t.Helper()
	sch, err := reg.Lookup(table)
	if err != nil {
		t.Fatalf("lookup %s: %v", table, err)
	}
	rec := record.New(sch)
	for k, v := range values {
		if err := rec.SetExtra(k, v); err != nil {
			t.Fatalf("SetExtra %s.%s: %v", table, k, err)
		}
	}
	return rec
}

// fakeSource is a minimal TableSource test double: every table's rows
// are pre-loaded regardless of the requested window, matching what a
// single-partition in-memory fixture needs.
type fakeSource struct {
	rows map[string][]*record.Record
}

func (f *fakeSource) ReadPartitions(table PlanTable, tmin, tmax float64) ([]*record.Record, error) {
	return f.rows[table.Schema.Name], nil
}

func (f *fakeSource) Bounds() (float64, float64) {
	return 0, 9999999999
}

func TestParseRejectsUnknownTable(t *testing.T) {
	reg := testRegistry(t)
	_, err := Parse("SELECT w.sta FROM bogus w", reg)
	if err == nil {
		t.Fatal("expected error for unknown table")
	}
}

func TestParseRejectsUnknownColumn(t *testing.T) {
	reg := testRegistry(t)
	_, err := Parse("SELECT w.nope FROM wfdisc w", reg)
	if err == nil {
		t.Fatal("expected error for unknown column")
	}
}

func TestParseRejectsUnknownAlias(t *testing.T) {
	reg := testRegistry(t)
	_, err := Parse("SELECT x.sta FROM wfdisc w", reg)
	if err == nil {
		t.Fatal("expected error for unknown alias")
	}
}

func TestParseValidQuery(t *testing.T) {
	reg := testRegistry(t)
	plan, err := Parse("SELECT DISTINCT w.sta, w.chan FROM wfdisc w WHERE w.sta = 'MKAR' AND w.time >= 1000", reg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !plan.Distinct {
		t.Fatal("expected Distinct to be set")
	}
	if len(plan.SelectCols) != 2 {
		t.Fatalf("expected 2 select columns, got %d", len(plan.SelectCols))
	}
	if len(plan.Constraints) != 2 {
		t.Fatalf("expected 2 constraints, got %d", len(plan.Constraints))
	}
}

func TestParseRejectsTrailingTokens(t *testing.T) {
	reg := testRegistry(t)
	_, err := Parse("SELECT w.sta FROM wfdisc w EXTRA", reg)
	if err == nil {
		t.Fatal("expected error for trailing tokens")
	}
}

func TestOrderTablesPutsMostConstrainedFirst(t *testing.T) {
	reg := testRegistry(t)
	plan, err := Parse("SELECT w.sta FROM wfdisc w, site s WHERE w.sta = 's1' AND w.chan = 'c1' AND s.sta = 's1'", reg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ordered := OrderTables(plan)
	if ordered[0].Alias != "w" {
		t.Fatalf("expected w first (2 bound literals), got %s", ordered[0].Alias)
	}
}

func TestLocalWindowTightensFromLiterals(t *testing.T) {
	reg := testRegistry(t)
	plan, err := Parse("SELECT w.sta FROM wfdisc w WHERE w.time >= 100 AND w.time <= 200", reg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	lo, hi := LocalWindow(plan, "w", 0, 9999999999)
	if lo != 100 || hi != 9999999999 {
		t.Fatalf("expected lo=100 hi=9999999999, got lo=%v hi=%v", lo, hi)
	}
}

func TestExecutorStreamSingleTableFilter(t *testing.T) {
	reg := testRegistry(t)
	rows := []*record.Record{
		newRow(t, reg, "wfdisc", map[string]string{"sta": "MKAR", "chan": "BHZ", "time": "100", "wfid": "1"}),
		newRow(t, reg, "wfdisc", map[string]string{"sta": "ASAR", "chan": "BHZ", "time": "200", "wfid": "2"}),
	}
	src := &fakeSource{rows: map[string][]*record.Record{"wfdisc": rows}}

	plan, err := Parse("SELECT w.sta FROM wfdisc w WHERE w.sta = 'MKAR'", reg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	exec := NewExecutor(src)
	rs, err := exec.Stream(plan)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer rs.Close()

	got, err := rs.Next(10)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	sta, _ := got[0].Get("sta")
	if sta != "MKAR" {
		t.Fatalf("expected sta=MKAR, got %v", sta)
	}
}

func TestExecutorStreamJoinAcrossTables(t *testing.T) {
	reg := testRegistry(t)
	wfdiscRows := []*record.Record{
		newRow(t, reg, "wfdisc", map[string]string{"sta": "MKAR", "chan": "BHZ", "time": "100", "wfid": "1"}),
		newRow(t, reg, "wfdisc", map[string]string{"sta": "ASAR", "chan": "BHZ", "time": "200", "wfid": "2"}),
	}
	siteRows := []*record.Record{
		newRow(t, reg, "site", map[string]string{"sta": "MKAR", "staname": "Makanchi"}),
	}
	src := &fakeSource{rows: map[string][]*record.Record{"wfdisc": wfdiscRows, "site": siteRows}}

	plan, err := Parse("SELECT w.sta FROM wfdisc w, site s WHERE w.sta = s.sta", reg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	exec := NewExecutor(src)
	rs, err := exec.Stream(plan)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer rs.Close()

	got, err := rs.Next(10)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 joined row, got %d", len(got))
	}
	sta, _ := got[0].Get("sta")
	if sta != "MKAR" {
		t.Fatalf("expected sta=MKAR, got %v", sta)
	}
}

func TestExecutorDistinctDedup(t *testing.T) {
	reg := testRegistry(t)
	rows := []*record.Record{
		newRow(t, reg, "wfdisc", map[string]string{"sta": "MKAR", "chan": "BHZ", "time": "100", "wfid": "1"}),
		newRow(t, reg, "wfdisc", map[string]string{"sta": "MKAR", "chan": "BHE", "time": "150", "wfid": "2"}),
	}
	src := &fakeSource{rows: map[string][]*record.Record{"wfdisc": rows}}

	plan, err := Parse("SELECT DISTINCT w.sta FROM wfdisc w", reg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	exec := NewExecutor(src)
	rs, err := exec.Stream(plan)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer rs.Close()

	got, err := rs.Next(10)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 distinct row, got %d", len(got))
	}
}

func TestResultStreamCloseTwiceReportsError(t *testing.T) {
	reg := testRegistry(t)
	src := &fakeSource{rows: map[string][]*record.Record{}}
	plan, err := Parse("SELECT w.sta FROM wfdisc w", reg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	exec := NewExecutor(src)
	rs, err := exec.Stream(plan)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if err := rs.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := rs.Close(); err != ErrQueryClosed {
		t.Fatalf("expected ErrQueryClosed on second Close, got %v", err)
	}
}

func TestLikeMatch(t *testing.T) {
	cases := []struct {
		s, pattern string
		want       bool
	}{
		{"MKAR", "MK%", true},
		{"MKAR", "%AR", true},
		{"MKAR", "M_AR", true},
		{"MKAR", "ASAR", false},
		{"", "%", true},
	}
	for _, c := range cases {
		if got := likeMatch(c.s, c.pattern); got != c.want {
			t.Errorf("likeMatch(%q, %q) = %v, want %v", c.s, c.pattern, got, c.want)
		}
	}
}
