package idservice

import (
	"path/filepath"
	"testing"
)

func openTestService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "lastid.kv"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRequestIdsConsecutive(t *testing.T) {
	s := openTestService(t)
	ids, err := s.RequestIds("arid", 5, true)
	if err != nil {
		t.Fatal(err)
	}
	for i, id := range ids {
		if id != int64(i)+1 {
			t.Fatalf("ids = %v, want consecutive starting at 1", ids)
		}
	}
}

func TestBatchRefillMatchesScenario(t *testing.T) {
	s := openTestService(t)
	if err := s.SetRequestIdIncrement("arid", 1000); err != nil {
		t.Fatal(err)
	}
	first, err := s.RequestIds("arid", 1, true)
	if err != nil {
		t.Fatal(err)
	}
	if first[0] != 1 {
		t.Fatalf("first id = %v, want 1", first[0])
	}
	if avail := s.NumberAvailable("arid"); avail != 999 {
		t.Fatalf("NumberAvailable after first call = %d, want 999", avail)
	}
	for i := 0; i < 998; i++ {
		if _, err := s.RequestIds("arid", 1, true); err != nil {
			t.Fatal(err)
		}
	}
	if avail := s.NumberAvailable("arid"); avail != 1 {
		t.Fatalf("NumberAvailable before 1000th call = %d, want 1", avail)
	}
	last, err := s.RequestIds("arid", 1, true)
	if err != nil {
		t.Fatal(err)
	}
	if last[0] != 1000 {
		t.Fatalf("1000th id = %v, want 1000", last[0])
	}
	if avail := s.NumberAvailable("arid"); avail != 0 {
		t.Fatalf("NumberAvailable after exhausting batch = %d, want 0", avail)
	}
	overflow, err := s.RequestIds("arid", 1, true)
	if err != nil {
		t.Fatal(err)
	}
	if overflow[0] != 1001 {
		t.Fatalf("1001st id = %v, want 1001 (refilled batch)", overflow[0])
	}
}

func TestRecycleIdsServedBeforeNewAllocation(t *testing.T) {
	s := openTestService(t)
	ids, err := s.RequestIds("wfid", 3, true)
	if err != nil {
		t.Fatal(err)
	}
	s.RecycleIds("wfid", []int64{ids[1]})
	reused, err := s.RequestIds("wfid", 1, false)
	if err != nil {
		t.Fatal(err)
	}
	if reused[0] != ids[1] {
		t.Fatalf("expected a non-consecutive request to reuse the recycled id %d, got %d", ids[1], reused[0])
	}
}

func TestIndependentKeyNamesDoNotShareCounters(t *testing.T) {
	s := openTestService(t)
	arid, err := s.RequestIds("arid", 1, true)
	if err != nil {
		t.Fatal(err)
	}
	orid, err := s.RequestIds("orid", 1, true)
	if err != nil {
		t.Fatal(err)
	}
	if arid[0] != 1 || orid[0] != 1 {
		t.Fatalf("each keyname should start its own sequence at 1, got arid=%v orid=%v", arid, orid)
	}
}
