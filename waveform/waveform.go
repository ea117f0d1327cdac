// Package waveform assembles decoded sample blocks (wfcodec) into
// gap-aware multi-segment time series, mirroring the teacher's
// PingData/FileInfo assembly pattern in ping.go/file.go: accumulate
// typed blocks while walking provenance, then expose query methods
// over the accumulated whole.
package waveform

import (
	"errors"

	"github.com/sixy6e/go-ffdb/method"
	"github.com/sixy6e/go-ffdb/record"
)

var (
	ErrEmptySeries  = errors.New("waveform: time series has no segments")
	ErrOutOfRange   = errors.New("waveform: requested time is outside the series")
	ErrEmptyInterval = errors.New("waveform: subseries interval is empty")
)

// Segment is one contiguous run of uniformly sampled data.
type Segment struct {
	T0     float64
	Dt     float64
	Calib  float32
	Calper float32
	Data   []float32
}

// NewSegment constructs a Segment from decoded sample data.
func NewSegment(data []float32, t0, dt float64, calib, calper float32) Segment {
	return Segment{T0: t0, Dt: dt, Calib: calib, Calper: calper, Data: data}
}

// Tend is the time of the sample one step past the segment's last
// sample: T0 + n*Dt, the half-open-interval end spec.md's Segment
// query contract uses.
func (s Segment) Tend() float64 {
	return s.T0 + float64(len(s.Data))*s.Dt
}

// CanJoin implements the three-part adjacency predicate of spec.md
// §4.F verbatim: sample-rate agreement, gap-free start time, and
// calibration agreement, each within its own tolerance, relative to a.
func CanJoin(a, b Segment, dtTol, calibTol float64) bool {
	if a.Dt == 0 || a.Calib == 0 {
		return false
	}
	n := float64(len(a.Data))
	rateOK := absf((b.Dt-a.Dt)/a.Dt) < dtTol
	gapOK := absf((b.T0-(a.T0+n*a.Dt))/a.Dt) < dtTol
	calibOK := absf(float64(b.Calib-a.Calib)/float64(a.Calib)) < calibTol
	return rateOK && gapOK && calibOK
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// TimeSeries is a named channel's assembled segment list plus the
// provenance (its originating wfdisc row) and the method stack
// applied so far, so the series can be re-materialized and replayed
// per spec.md §4.G's "re-read" contract.
type TimeSeries struct {
	Station        string
	Channel        string
	Network        string
	DtTolerance    float64
	CalibTolerance float64
	Segments       []Segment
	Provenance     *record.Record
	Methods        *method.Stack
}

// New constructs an empty TimeSeries; segments are added with Append.
func New(station, channel, network string, dtTol, calibTol float64) *TimeSeries {
	return &TimeSeries{
		Station:        station,
		Channel:        channel,
		Network:        network,
		DtTolerance:    dtTol,
		CalibTolerance: calibTol,
		Methods:        method.NewStack(),
	}
}

// EachSample calls fn for every sample of every segment, in segment
// then sample order, replacing each sample with fn's return value.
// This is the surface method.Method.Apply uses to mutate a series
// without the method package importing waveform (which would cycle
// back through TimeSeries.Methods *method.Stack).
func (ts *TimeSeries) EachSample(fn func(segIdx, sampleIdx int, v float32) float32) {
	for s := range ts.Segments {
		data := ts.Segments[s].Data
		for i, v := range data {
			data[i] = fn(s, i, v)
		}
	}
}

// SegmentCount reports the number of segments.
func (ts *TimeSeries) SegmentCount() int {
	return len(ts.Segments)
}

// CalibOf returns the calibration factor of segment segIdx.
func (ts *TimeSeries) CalibOf(segIdx int) float32 {
	return ts.Segments[segIdx].Calib
}

// Append adds seg, joining it into the last existing segment in place
// when CanJoin holds, otherwise starting a new segment.
func (ts *TimeSeries) Append(seg Segment) {
	if len(ts.Segments) == 0 {
		ts.Segments = append(ts.Segments, seg)
		return
	}
	last := &ts.Segments[len(ts.Segments)-1]
	if CanJoin(*last, seg, ts.DtTolerance, ts.CalibTolerance) {
		last.Data = append(last.Data, seg.Data...)
		return
	}
	ts.Segments = append(ts.Segments, seg)
}

// NearestSegment returns the segment whose [T0, Tend) interval is
// closest to t, preferring a segment that actually contains t.
func (ts *TimeSeries) NearestSegment(t float64) (*Segment, bool) {
	if len(ts.Segments) == 0 {
		return nil, false
	}
	var best *Segment
	bestDist := float64(0)
	for i := range ts.Segments {
		seg := &ts.Segments[i]
		if t >= seg.T0 && t < seg.Tend() {
			return seg, true
		}
		var d float64
		if t < seg.T0 {
			d = seg.T0 - t
		} else {
			d = t - seg.Tend()
		}
		if best == nil || d < bestDist {
			best = seg
			bestDist = d
		}
	}
	return best, best != nil
}

// Segment returns the segment containing t under a half-open
// [T0, Tend) interval, per spec.md §4.F.
func (ts *TimeSeries) Segment(t float64) (*Segment, bool) {
	for i := range ts.Segments {
		seg := &ts.Segments[i]
		if t >= seg.T0 && t < seg.Tend() {
			return seg, true
		}
	}
	return nil, false
}

// Subseries returns a new TimeSeries covering [t1, t2), with boundary
// segments snapped inward (partially-overlapping edge segments are
// clipped to the requested window rather than included whole). An
// interval starting exactly at a segment's Tend is empty, per spec.md
// §8's boundary edge case.
func (ts *TimeSeries) Subseries(t1, t2 float64) (*TimeSeries, error) {
	if t2 <= t1 {
		return nil, ErrEmptyInterval
	}
	out := New(ts.Station, ts.Channel, ts.Network, ts.DtTolerance, ts.CalibTolerance)
	for _, seg := range ts.Segments {
		segEnd := seg.Tend()
		if segEnd <= t1 || seg.T0 >= t2 {
			continue
		}
		startIdx := 0
		if t1 > seg.T0 {
			startIdx = int((t1 - seg.T0) / seg.Dt)
			if seg.T0+float64(startIdx)*seg.Dt < t1 {
				startIdx++
			}
		}
		endIdx := len(seg.Data)
		if t2 < segEnd {
			endIdx = int((t2 - seg.T0) / seg.Dt)
		}
		if startIdx >= endIdx {
			continue
		}
		clipped := Segment{
			T0:     seg.T0 + float64(startIdx)*seg.Dt,
			Dt:     seg.Dt,
			Calib:  seg.Calib,
			Calper: seg.Calper,
			Data:   append([]float32(nil), seg.Data[startIdx:endIdx]...),
		}
		out.Segments = append(out.Segments, clipped)
	}
	return out, nil
}

// Truncate mutates ts in place to cover only [t1, t2).
func (ts *TimeSeries) Truncate(t1, t2 float64) error {
	sub, err := ts.Subseries(t1, t2)
	if err != nil {
		return err
	}
	ts.Segments = sub.Segments
	return nil
}

// DataMin returns the minimum sample value across every segment.
func (ts *TimeSeries) DataMin() (float32, error) {
	return reduce(ts, func(a, b float32) bool { return b < a })
}

// DataMax returns the maximum sample value across every segment.
func (ts *TimeSeries) DataMax() (float32, error) {
	return reduce(ts, func(a, b float32) bool { return b > a })
}

// DataMean returns the arithmetic mean sample value across every segment.
func (ts *TimeSeries) DataMean() (float64, error) {
	var sum float64
	var n int
	for _, seg := range ts.Segments {
		for _, v := range seg.Data {
			sum += float64(v)
			n++
		}
	}
	if n == 0 {
		return 0, ErrEmptySeries
	}
	return sum / float64(n), nil
}

func reduce(ts *TimeSeries, replace func(cur, candidate float32) bool) (float32, error) {
	var (
		best float32
		set  bool
	)
	for _, seg := range ts.Segments {
		for _, v := range seg.Data {
			if !set || replace(best, v) {
				best = v
				set = true
			}
		}
	}
	if !set {
		return 0, ErrEmptySeries
	}
	return best, nil
}
