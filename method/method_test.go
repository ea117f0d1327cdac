package method

import "testing"

type fakeSeries struct {
	segments [][]float32
	calib    []float32
}

func (f *fakeSeries) EachSample(fn func(segIdx, sampleIdx int, v float32) float32) {
	for s := range f.segments {
		for i, v := range f.segments[s] {
			f.segments[s][i] = fn(s, i, v)
		}
	}
}

func (f *fakeSeries) SegmentCount() int { return len(f.segments) }

func (f *fakeSeries) CalibOf(segIdx int) float32 { return f.calib[segIdx] }

func TestOffsetApply(t *testing.T) {
	ts := &fakeSeries{segments: [][]float32{{1, 2, 3}}}
	o := Offset{Value: 5}
	if err := o.Apply(ts); err != nil {
		t.Fatal(err)
	}
	want := []float32{6, 7, 8}
	for i, v := range ts.segments[0] {
		if v != want[i] {
			t.Fatalf("got %v, want %v", ts.segments[0], want)
		}
	}
}

func TestRemoveAvgZeroesMean(t *testing.T) {
	ts := &fakeSeries{segments: [][]float32{{1, 2, 3, 4, 5}}}
	r := RemoveAvg{}
	if err := r.Apply(ts); err != nil {
		t.Fatal(err)
	}
	var sum float32
	for _, v := range ts.segments[0] {
		sum += v
	}
	if sum > 1e-5 || sum < -1e-5 {
		t.Fatalf("sum after RemoveAvg = %v, want ~0", sum)
	}
}

func TestApplyCalibSkipsUnityCalib(t *testing.T) {
	ts := &fakeSeries{segments: [][]float32{{1, 2}}, calib: []float32{1}}
	c := ApplyCalib{}
	if err := c.Apply(ts); err != nil {
		t.Fatal(err)
	}
	if ts.segments[0][0] != 1 || ts.segments[0][1] != 2 {
		t.Fatalf("ApplyCalib should be a no-op when calib==1, got %v", ts.segments[0])
	}
}

func TestApplyCalibScales(t *testing.T) {
	ts := &fakeSeries{segments: [][]float32{{1, 2}}, calib: []float32{2}}
	c := ApplyCalib{}
	if err := c.Apply(ts); err != nil {
		t.Fatal(err)
	}
	if ts.segments[0][0] != 2 || ts.segments[0][1] != 4 {
		t.Fatalf("got %v, want [2 4]", ts.segments[0])
	}
}

func TestStackRejectsReorderedRotate(t *testing.T) {
	s := NewStack()
	if err := s.Append(AmpFactor{Factor: 2}); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(Rotate{AngleDeg: 90}); err == nil {
		t.Fatalf("Append should reject a Rotate after a non-rotation-commutative AmpFactor")
	}
}

func TestStackAllowsRotateAfterCommutativeMethods(t *testing.T) {
	s := NewStack()
	if err := s.Append(Offset{Value: 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(Rotate{AngleDeg: 90}); err != nil {
		t.Fatalf("Append should allow Rotate after rotation-commutative methods: %v", err)
	}
}

func TestIIRStatePersistsAcrossApply(t *testing.T) {
	f := &IIR{Order: 1}
	ts := &fakeSeries{segments: [][]float32{{1, 0, 0}}}
	if err := f.Apply(ts); err != nil {
		t.Fatal(err)
	}
	firstState := f.State[0]
	if firstState == ([2]float64{0, 0}) {
		t.Fatalf("IIR.State should be nonzero after Apply")
	}
}

func TestStackReplayAppliesInOrder(t *testing.T) {
	s := NewStack()
	_ = s.Append(Offset{Value: 1})
	_ = s.Append(AmpFactor{Factor: 2})
	ts := &fakeSeries{segments: [][]float32{{1}}}
	if err := s.Replay(ts); err != nil {
		t.Fatal(err)
	}
	// (1 + 1) * 2 = 4
	if ts.segments[0][0] != 4 {
		t.Fatalf("got %v, want 4", ts.segments[0][0])
	}
}
