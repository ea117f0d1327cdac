package waveform

import "testing"

func TestCanJoinAcceptsContiguousSegment(t *testing.T) {
	a := Segment{T0: 0, Dt: 1, Calib: 1, Data: []float32{1, 2, 3}}
	b := Segment{T0: 3, Dt: 1, Calib: 1, Data: []float32{4, 5}}
	if !CanJoin(a, b, 1e-6, 1e-6) {
		t.Fatalf("expected contiguous, same-rate, same-calib segments to join")
	}
}

func TestCanJoinRejectsGap(t *testing.T) {
	a := Segment{T0: 0, Dt: 1, Calib: 1, Data: []float32{1, 2, 3}}
	b := Segment{T0: 10, Dt: 1, Calib: 1, Data: []float32{4, 5}}
	if CanJoin(a, b, 1e-6, 1e-6) {
		t.Fatalf("expected a gapped segment not to join")
	}
}

func TestCanJoinRejectsCalibMismatch(t *testing.T) {
	a := Segment{T0: 0, Dt: 1, Calib: 1, Data: []float32{1, 2, 3}}
	b := Segment{T0: 3, Dt: 1, Calib: 5, Data: []float32{4, 5}}
	if CanJoin(a, b, 1e-6, 1e-6) {
		t.Fatalf("expected calibration mismatch to block joining")
	}
}

func TestAppendJoinsContiguousSegments(t *testing.T) {
	ts := New("KDAK", "BHZ", "IU", 1e-3, 1e-3)
	ts.Append(Segment{T0: 0, Dt: 1, Calib: 1, Data: []float32{1, 2}})
	ts.Append(Segment{T0: 2, Dt: 1, Calib: 1, Data: []float32{3, 4}})
	if len(ts.Segments) != 1 {
		t.Fatalf("expected segments to merge into one, got %d", len(ts.Segments))
	}
	if len(ts.Segments[0].Data) != 4 {
		t.Fatalf("expected 4 merged samples, got %d", len(ts.Segments[0].Data))
	}
}

func TestAppendKeepsGappedSegmentsSeparate(t *testing.T) {
	ts := New("KDAK", "BHZ", "IU", 1e-3, 1e-3)
	ts.Append(Segment{T0: 0, Dt: 1, Calib: 1, Data: []float32{1, 2}})
	ts.Append(Segment{T0: 100, Dt: 1, Calib: 1, Data: []float32{3, 4}})
	if len(ts.Segments) != 2 {
		t.Fatalf("expected 2 separate segments, got %d", len(ts.Segments))
	}
}

func TestSegmentHalfOpenInterval(t *testing.T) {
	ts := New("KDAK", "BHZ", "IU", 1e-3, 1e-3)
	ts.Append(Segment{T0: 0, Dt: 1, Calib: 1, Data: []float32{1, 2, 3}})
	if _, ok := ts.Segment(3); ok {
		t.Fatalf("Segment(Tend) should not be found: the interval is half-open")
	}
	if _, ok := ts.Segment(2.999); !ok {
		t.Fatalf("Segment(Tend - epsilon) should be found")
	}
}

func TestSubseriesBoundaryEmpty(t *testing.T) {
	ts := New("KDAK", "BHZ", "IU", 1e-3, 1e-3)
	ts.Append(Segment{T0: 0, Dt: 1, Calib: 1, Data: []float32{1, 2, 3}})
	sub, err := ts.Subseries(3, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(sub.Segments) != 0 {
		t.Fatalf("t1 == Tend should yield an empty subseries, got %d segments", len(sub.Segments))
	}
}

func TestSubseriesClipsInward(t *testing.T) {
	ts := New("KDAK", "BHZ", "IU", 1e-3, 1e-3)
	ts.Append(Segment{T0: 0, Dt: 1, Calib: 1, Data: []float32{1, 2, 3, 4, 5}})
	sub, err := ts.Subseries(1, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(sub.Segments) != 1 || len(sub.Segments[0].Data) != 3 {
		t.Fatalf("expected one 3-sample clipped segment, got %+v", sub.Segments)
	}
	if sub.Segments[0].Data[0] != 2 {
		t.Fatalf("clipped segment should start at sample index 1 (value 2), got %v", sub.Segments[0].Data[0])
	}
}

func TestDataMinMaxMean(t *testing.T) {
	ts := New("KDAK", "BHZ", "IU", 1e-3, 1e-3)
	ts.Append(Segment{T0: 0, Dt: 1, Calib: 1, Data: []float32{1, 2, 3}})
	min, err := ts.DataMin()
	if err != nil || min != 1 {
		t.Fatalf("DataMin = %v, %v; want 1, nil", min, err)
	}
	max, err := ts.DataMax()
	if err != nil || max != 3 {
		t.Fatalf("DataMax = %v, %v; want 3, nil", max, err)
	}
	mean, err := ts.DataMean()
	if err != nil || mean != 2 {
		t.Fatalf("DataMean = %v, %v; want 2, nil", mean, err)
	}
}

func TestDataMinOnEmptySeriesErrors(t *testing.T) {
	ts := New("KDAK", "BHZ", "IU", 1e-3, 1e-3)
	if _, err := ts.DataMin(); err == nil {
		t.Fatalf("DataMin on an empty series should error")
	}
}
