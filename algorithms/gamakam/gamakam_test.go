package gamakam

import (
	"math"
	"testing"

	"github.com/sargamlabs/sargam/algorithms/pitch"
)

const testHop = 0.01

// framesFromCents builds one voiced frame per hop whose frequencies sit at
// the given cent deviations from center
func framesFromCents(center float64, cents []float64) []pitch.Frame {
	frames := make([]pitch.Frame, len(cents))
	for i, c := range cents {
		frames[i] = pitch.Frame{
			Time:       float64(i) * testHop,
			Frequency:  center * math.Pow(2, c/1200.0),
			Voiced:     true,
			Confidence: 0.9,
		}
	}
	return frames
}

func duration(frames []pitch.Frame) float64 {
	return frames[len(frames)-1].Time + testHop
}

func TestClassifyKampitam(t *testing.T) {
	classifier := NewClassifier(DefaultParams(testHop))
	center := 220.0

	// A 15 cent oscillation crossing the center every hop
	cents := make([]float64, 20)
	for i := range cents {
		cents[i] = 15.0
		if i%2 == 1 {
			cents[i] = -15.0
		}
	}

	frames := framesFromCents(center, cents)
	if got := classifier.Classify(frames, center, duration(frames)); got != Kampitam {
		t.Errorf("Classify = %q, want %q", got, Kampitam)
	}
}

func TestClassifySteadyNote(t *testing.T) {
	classifier := NewClassifier(DefaultParams(testHop))
	center := 220.0

	frames := framesFromCents(center, make([]float64, 20))
	if got := classifier.Classify(frames, center, duration(frames)); got != "" {
		t.Errorf("steady note classified as %q", got)
	}
}

func TestClassifyInaudibleOscillation(t *testing.T) {
	classifier := NewClassifier(DefaultParams(testHop))
	center := 220.0

	// Crosses the center constantly but stays within 2 cents: jitter, not
	// ornamentation
	cents := make([]float64, 20)
	for i := range cents {
		cents[i] = 2.0
		if i%2 == 1 {
			cents[i] = -2.0
		}
	}

	frames := framesFromCents(center, cents)
	if got := classifier.Classify(frames, center, duration(frames)); got != "" {
		t.Errorf("sub-audible oscillation classified as %q", got)
	}
}

func TestClassifyJanta(t *testing.T) {
	classifier := NewClassifier(DefaultParams(testHop))
	center := 220.0

	// Starts and ends on the note, dips 30 cents in the interior
	frames := framesFromCents(center, []float64{0, 0, 5, 20, 30, 20, 5, 0, 0})
	if got := classifier.Classify(frames, center, duration(frames)); got != Janta {
		t.Errorf("Classify = %q, want %q", got, Janta)
	}
}

func TestClassifyJantaRejectsLargeExcursion(t *testing.T) {
	classifier := NewClassifier(DefaultParams(testHop))
	center := 220.0

	// A 60 cent excursion reaches the next scale degree's neighborhood
	frames := framesFromCents(center, []float64{0, 0, 20, 60, 20, 0, 0})
	if got := classifier.Classify(frames, center, duration(frames)); got != "" {
		t.Errorf("over-wide excursion classified as %q", got)
	}
}

func TestClassifyJantaRejectsOffNoteEndpoints(t *testing.T) {
	classifier := NewClassifier(DefaultParams(testHop))
	center := 220.0

	frames := framesFromCents(center, []float64{25, 5, 20, 30, 20, 5, 0})
	if got := classifier.Classify(frames, center, duration(frames)); got != "" {
		t.Errorf("contour starting off the note classified as %q", got)
	}
}

func TestClassifyJantaRejectsSilenceGap(t *testing.T) {
	classifier := NewClassifier(DefaultParams(testHop))
	center := 220.0

	frames := framesFromCents(center, []float64{0, 0, 20, 30, 20, 0, 0})
	// Open a three-hop gap in the middle of the dip
	for i := 4; i < len(frames); i++ {
		frames[i].Time += 3 * testHop
	}

	if got := classifier.Classify(frames, center, duration(frames)); got != "" {
		t.Errorf("gapped contour classified as %q", got)
	}
}

func TestClassifyGuards(t *testing.T) {
	classifier := NewClassifier(DefaultParams(testHop))
	center := 220.0

	oscillating := framesFromCents(center, []float64{15, -15, 15, -15, 15, -15})

	if got := classifier.Classify(oscillating[:2], center, duration(oscillating)); got != "" {
		t.Errorf("two-frame contour classified as %q", got)
	}
	if got := classifier.Classify(oscillating, center, 1.5*testHop); got != "" {
		t.Errorf("sub-two-hop note classified as %q", got)
	}
	if got := classifier.Classify(oscillating, 0, duration(oscillating)); got != "" {
		t.Errorf("zero center frequency classified as %q", got)
	}
}
