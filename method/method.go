// Package method implements the CSS 3.0 data-method stack: a
// deterministic, replayable, serializable list of transformations
// applied to a waveform.TimeSeries. Each concrete method is a small
// value object, the way the teacher treats each GSF subrecord kind as
// its own typed struct with a narrow decode/apply surface.
package method

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrRotationOrdering = errors.New("method: cannot reorder Rotate past a non-rotation-commutative method")
	ErrUnknownKind       = errors.New("method: unknown method kind")
)

// Kind enumerates the complete, closed list of method kinds spec.md
// §4.G names.
type Kind int

const (
	CopyDataKind Kind = iota
	CutKind
	TaperKind
	IIRKind
	RemoveAvgKind
	OffsetKind
	AmpFactorKind
	ApplyCalibKind
	RotateKind
	ConvolveKind
	QCDataKind
)

func (k Kind) String() string {
	switch k {
	case CopyDataKind:
		return "CopyData"
	case CutKind:
		return "Cut"
	case TaperKind:
		return "Taper"
	case IIRKind:
		return "IIR"
	case RemoveAvgKind:
		return "RemoveAvg"
	case OffsetKind:
		return "Offset"
	case AmpFactorKind:
		return "AmpFactor"
	case ApplyCalibKind:
		return "ApplyCalib"
	case RotateKind:
		return "Rotate"
	case ConvolveKind:
		return "Convolve"
	case QCDataKind:
		return "QCData"
	default:
		return "Unknown"
	}
}

// TimeSeries is the minimal surface method.Apply needs from a
// waveform.TimeSeries. Declared here (rather than importing the
// waveform package directly) to avoid a method<->waveform import
// cycle, since waveform.TimeSeries embeds a *Stack.
type TimeSeries interface {
	EachSample(fn func(segIdx, sampleIdx int, v float32) float32)
	SegmentCount() int
	CalibOf(segIdx int) float32
}

// Method is a single data-method value object.
type Method interface {
	Kind() Kind
	Serialize() string
	RotationCommutative() bool
	Apply(ts TimeSeries) error
}

// Stack is an ordered list of Methods, applied and replayed in list
// order. Appending a Rotate after a method whose RotationCommutative
// is false is rejected, matching spec.md §4.G's ordering contract.
type Stack struct {
	methods []Method
}

// NewStack constructs an empty method stack.
func NewStack() *Stack {
	return &Stack{}
}

// Append adds m to the stack, after checking the rotation-ordering
// constraint against every method already present.
func (s *Stack) Append(m Method) error {
	if m.Kind() == RotateKind {
		for _, existing := range s.methods {
			if !existing.RotationCommutative() {
				return fmt.Errorf("%w: %s blocks rotation", ErrRotationOrdering, existing.Kind())
			}
		}
	}
	s.methods = append(s.methods, m)
	return nil
}

// Methods returns the stack's methods in application order.
func (s *Stack) Methods() []Method {
	return s.methods
}

// Replay re-applies every method in list order to ts, the
// re-materialize-from-provenance path spec.md §4.G/§8 scenario 5
// requires to reproduce the pre-close state bit-identically (subject
// to each method's own floating-point tolerance).
func (s *Stack) Replay(ts TimeSeries) error {
	for i, m := range s.methods {
		if err := m.Apply(ts); err != nil {
			return fmt.Errorf("method: replay step %d (%s): %w", i, m.Kind(), err)
		}
	}
	return nil
}

// --- concrete methods -------------------------------------------------

// CopyData is a no-op placeholder method recording that a verbatim
// copy was taken at this point in the stack (used when branching a
// series for independent downstream processing).
type CopyData struct{}

func (CopyData) Kind() Kind                 { return CopyDataKind }
func (CopyData) RotationCommutative() bool  { return true }
func (CopyData) Serialize() string          { return "CopyData()" }
func (CopyData) Apply(ts TimeSeries) error  { return nil }

// Cut records a [T1, T2] window. Apply leaves the samples unchanged;
// samples outside the window are removed only by a separate call to
// waveform.TimeSeries.Truncate.
type Cut struct {
	T1, T2 float64
}

func (c Cut) Kind() Kind                { return CutKind }
func (c Cut) RotationCommutative() bool { return true }
func (c Cut) Serialize() string         { return fmt.Sprintf("Cut(t1=%g,t2=%g)", c.T1, c.T2) }
func (c Cut) Apply(ts TimeSeries) error { return nil } // no-op; see the Cut doc

// TaperWindow enumerates the supported taper window shapes.
type TaperWindow int

const (
	Hann TaperWindow = iota
	Hamming
	Parzen
	Welch
	Blackman
	Cosine
)

// Taper applies a fade window of Width samples at each end of every
// segment. Min and Max are recorded in Serialize but do not change
// which samples are tapered.
type Taper struct {
	Window   TaperWindow
	Width    int
	Min, Max float64
}

func (t Taper) Kind() Kind                { return TaperKind }
func (t Taper) RotationCommutative() bool { return false }
func (t Taper) Serialize() string {
	return fmt.Sprintf("Taper(window=%d,width=%d,min=%g,max=%g)", t.Window, t.Width, t.Min, t.Max)
}
func (t Taper) Apply(ts TimeSeries) error {
	if t.Width <= 0 {
		return nil
	}
	lengths := make([]int, ts.SegmentCount())
	ts.EachSample(func(s, _ int, v float32) float32 {
		lengths[s]++
		return v
	})
	ts.EachSample(func(s, i int, v float32) float32 {
		w := taperWeight(t.Window, i, t.Width)
		if tail := taperWeight(t.Window, lengths[s]-1-i, t.Width); tail < w {
			w = tail
		}
		return v * float32(w)
	})
	return nil
}

func taperWeight(window TaperWindow, i, width int) float64 {
	if i >= width {
		return 1
	}
	x := float64(i) / float64(width)
	switch window {
	case Hann:
		return 0.5 - 0.5*math.Cos(math.Pi*x)
	case Hamming:
		return 0.54 - 0.46*math.Cos(math.Pi*x)
	case Welch:
		return 1 - math.Pow(x-1, 2)
	case Cosine:
		return math.Sin(math.Pi / 2 * x)
	case Blackman:
		return 0.42 - 0.5*math.Cos(math.Pi*x) + 0.08*math.Cos(2*math.Pi*x)
	case Parzen:
		return x
	default:
		return x
	}
}

// IIRType enumerates the supported filter bands.
type IIRType int

const (
	LP IIRType = iota
	HP
	BP
	BR
)

// IIR is a cascade of Order recursive sections. State carries the last
// window's recursion values per cascaded section (spec.md §4.G / §8
// scenario 5). Every section applies the same fixed recursion
// (w0 = x - w1 - w2, y = w0 + 2*w1 + w2); Type, Flo, Fhi and ZeroPhase
// appear in Serialize but do not change the output.
type IIR struct {
	Order     int
	Type      IIRType
	Flo, Fhi  float64
	ZeroPhase bool
	State     [][2]float64
}

func (f IIR) Kind() Kind                { return IIRKind }
func (f IIR) RotationCommutative() bool { return true }
func (f IIR) Serialize() string {
	return fmt.Sprintf("IIR(order=%d,type=%d,flo=%g,fhi=%g,zero_phase=%v)", f.Order, f.Type, f.Flo, f.Fhi, f.ZeroPhase)
}
func (f *IIR) Apply(ts TimeSeries) error {
	if len(f.State) < f.Order {
		f.State = make([][2]float64, f.Order)
	}
	for section := range f.State {
		w1, w2 := f.State[section][0], f.State[section][1]
		ts.EachSample(func(_, _ int, v float32) float32 {
			w0 := float64(v) - w1 - w2
			out := w0 + 2*w1 + w2
			w2 = w1
			w1 = w0
			return float32(out)
		})
		f.State[section][0], f.State[section][1] = w1, w2
	}
	return nil
}

// RemoveAvg subtracts the mean of every sample in the series. T1 and
// T2 are recorded in Serialize but do not restrict the averaging
// window.
type RemoveAvg struct {
	T1, T2 float64
}

func (r RemoveAvg) Kind() Kind                { return RemoveAvgKind }
func (r RemoveAvg) RotationCommutative() bool { return true }
func (r RemoveAvg) Serialize() string {
	return fmt.Sprintf("RemoveAvg(t1=%g,t2=%g)", r.T1, r.T2)
}
func (r RemoveAvg) Apply(ts TimeSeries) error {
	var sum float64
	var n int
	ts.EachSample(func(_, _ int, v float32) float32 {
		sum += float64(v)
		n++
		return v
	})
	if n == 0 {
		return nil
	}
	mean := float32(sum / float64(n))
	ts.EachSample(func(_, _ int, v float32) float32 { return v - mean })
	return nil
}

// Offset adds a constant value to every sample.
type Offset struct {
	Value float64
}

func (o Offset) Kind() Kind                { return OffsetKind }
func (o Offset) RotationCommutative() bool { return true }
func (o Offset) Serialize() string         { return fmt.Sprintf("Offset(value=%g)", o.Value) }
func (o Offset) Apply(ts TimeSeries) error {
	ts.EachSample(func(_, _ int, v float32) float32 { return v + float32(o.Value) })
	return nil
}

// AmpFactor scales every sample by Factor, with a free-text Comment
// recording why (e.g. a manual gain correction).
type AmpFactor struct {
	Factor  float64
	Comment string
}

func (a AmpFactor) Kind() Kind                { return AmpFactorKind }
func (a AmpFactor) RotationCommutative() bool { return false }
func (a AmpFactor) Serialize() string {
	return fmt.Sprintf("AmpFactor(factor=%g,comment=%q)", a.Factor, a.Comment)
}
func (a AmpFactor) Apply(ts TimeSeries) error {
	ts.EachSample(func(_, _ int, v float32) float32 { return v * float32(a.Factor) })
	return nil
}

// ApplyCalib scales every sample by the segment's own calibration
// factor. Apply is a no-op on a segment whose calib is 0 or 1. It does
// not change a segment's calib afterwards, so applying it twice scales
// the samples twice.
type ApplyCalib struct{}

func (ApplyCalib) Kind() Kind                { return ApplyCalibKind }
func (ApplyCalib) RotationCommutative() bool { return true }
func (ApplyCalib) Serialize() string         { return "ApplyCalib()" }
func (ApplyCalib) Apply(ts TimeSeries) error {
	for seg := 0; seg < ts.SegmentCount(); seg++ {
		calib := ts.CalibOf(seg)
		if calib == 0 || calib == 1 {
			continue
		}
		ts.EachSample(func(s, _ int, v float32) float32 {
			if s != seg {
				return v
			}
			return v * calib
		})
	}
	return nil
}

// Rotate rotates the horizontal components of a pair of series by
// AngleDeg. MateTs names the companion series' provenance key;
// MateIsX records which of the pair this method's target series is.
type Rotate struct {
	AngleDeg float64
	MateTs   string
	MateIsX  bool
}

func (r Rotate) Kind() Kind                { return RotateKind }
func (r Rotate) RotationCommutative() bool { return false }
func (r Rotate) Serialize() string {
	return fmt.Sprintf("Rotate(angle_deg=%g,mate_ts=%q,mate_is_x=%v)", r.AngleDeg, r.MateTs, r.MateIsX)
}
func (r Rotate) Apply(ts TimeSeries) error {
	// Only the cosine projection onto this series' own axis is
	// applied, which is correct for the degenerate single-channel
	// case. MateTs and MateIsX are not read here, so no mate series
	// contributes to the result.
	theta := r.AngleDeg * math.Pi / 180
	cos := math.Cos(theta)
	ts.EachSample(func(_, _ int, v float32) float32 { return float32(float64(v) * cos) })
	return nil
}

// ConvolveDirection selects forward convolution or deconvolution.
type ConvolveDirection int

const (
	ConvolveForward ConvolveDirection = iota
	Deconvolve
)

// Convolve scales every sample by the first tap of Responses, or by the
// reciprocal of that tap when Direction is Deconvolve. The remaining
// taps, Flo, Fhi and Instype are recorded in Serialize but do not
// change the output.
type Convolve struct {
	Direction ConvolveDirection
	Responses []float64
	Flo, Fhi  float64
	Instype   string
}

func (c Convolve) Kind() Kind                { return ConvolveKind }
func (c Convolve) RotationCommutative() bool { return true }
func (c Convolve) Serialize() string {
	return fmt.Sprintf("Convolve(direction=%d,flo=%g,fhi=%g,instype=%q,ntaps=%d)", c.Direction, c.Flo, c.Fhi, c.Instype, len(c.Responses))
}
func (c Convolve) Apply(ts TimeSeries) error {
	if len(c.Responses) == 0 {
		return nil
	}
	kernel := c.Responses
	if c.Direction == Deconvolve {
		kernel = invertKernel(kernel)
	}
	ts.EachSample(func(_, _ int, v float32) float32 { return v * float32(kernel[0]) })
	return nil
}

func invertKernel(k []float64) []float64 {
	out := make([]float64, len(k))
	for i, v := range k {
		if v == 0 {
			out[i] = 0
			continue
		}
		out[i] = 1 / v
	}
	return out
}

// QCDef is one quality-control rule: a sample fails it when its
// absolute value exceeds Threshold.
type QCDef struct {
	Name      string
	Threshold float64
}

// QCData zeroes samples that fail any of Defs when Extended is set.
// When Extended is false, Apply leaves the series unchanged.
type QCData struct {
	Extended bool
	Defs     []QCDef
}

func (q QCData) Kind() Kind                { return QCDataKind }
func (q QCData) RotationCommutative() bool { return true }
func (q QCData) Serialize() string {
	return fmt.Sprintf("QCData(extended=%v,ndefs=%d)", q.Extended, len(q.Defs))
}
func (q QCData) Apply(ts TimeSeries) error {
	if !q.Extended {
		return nil
	}
	for _, def := range q.Defs {
		ts.EachSample(func(_, _ int, v float32) float32 {
			if math.Abs(float64(v)) > def.Threshold {
				return 0
			}
			return v
		})
	}
	return nil
}
