package gamakam

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sargamlabs/sargam/algorithms/pitch"
)

// Ornamentation labels attached to notes. The empty string means a plain
// note; absence of a label is the default, never an error.
const (
	// Kampitam is an oscillatory ornamentation, a controlled waver around
	// the note's pitch
	Kampitam = "kampitam"

	// Janta is a repeated-note articulation: a brief dip away from the
	// pitch and back, without leaving the scale degree
	Janta = "janta"
)

// Params contains thresholds for ornamentation classification
type Params struct {
	// MinCrossings is the zero-crossing count the pitch deviation must
	// exceed within one note for kampitam
	MinCrossings int `json:"min_crossings"`

	// AudibilityFloorCents is the minimum deviation standard deviation for
	// an oscillation to count as ornamentation rather than jitter
	AudibilityFloorCents float64 `json:"audibility_floor_cents"`

	// ToleranceCents bounds the "on the note" region for janta detection;
	// it mirrors the mapper's matching tolerance
	ToleranceCents float64 `json:"tolerance_cents"`

	// MaxJantaExcursionCents caps a janta dip so that larger excursions,
	// which would reach a neighboring scale degree, are not labeled
	MaxJantaExcursionCents float64 `json:"max_janta_excursion_cents"`

	// HopSeconds is the contour's analysis hop, used for the minimum
	// duration guard and the silence-gap check
	HopSeconds float64 `json:"hop_seconds"`
}

// DefaultParams returns classification thresholds for vocal input.
// The 5 cent audibility floor sits at the edge of the just noticeable
// pitch difference region.
func DefaultParams(hopSeconds float64) Params {
	return Params{
		MinCrossings:           3,
		AudibilityFloorCents:   5.0,
		ToleranceCents:         10.0,
		MaxJantaExcursionCents: 45.0,
		HopSeconds:             hopSeconds,
	}
}

// Classifier decides whether a note's pitch sub-contour exhibits
// ornamentation. It only produces a label; the note is otherwise unchanged.
type Classifier struct {
	params Params
}

// NewClassifier creates a classifier with the given thresholds
func NewClassifier(params Params) *Classifier {
	return &Classifier{params: params}
}

// Classify inspects one note's sub-contour against the tone map frequency
// the note was assigned to (centerHz) and returns an ornamentation label or
// the empty string.
//
// Notes shorter than two analysis hops, or with fewer than three voiced
// frames, are never classified.
func (c *Classifier) Classify(sub []pitch.Frame, centerHz, durationSeconds float64) string {
	if centerHz <= 0 || len(sub) < 3 {
		return ""
	}
	if durationSeconds < 2.0*c.params.HopSeconds {
		return ""
	}

	// Pitch deviation in cents relative to the note's assigned frequency
	dev := make([]float64, len(sub))
	for i, f := range sub {
		dev[i] = 1200.0 * math.Log2(f.Frequency/centerHz)
	}

	stdDev := stat.StdDev(dev, nil)
	crossings := countCrossings(dev)

	if crossings > c.params.MinCrossings && stdDev >= c.params.AudibilityFloorCents {
		return Kampitam
	}

	if c.isJanta(sub, dev) {
		return Janta
	}

	return ""
}

// countCrossings counts sign changes of the deviation about the center
func countCrossings(dev []float64) int {
	crossings := 0
	for i := 1; i < len(dev); i++ {
		if (dev[i] > 0 && dev[i-1] <= 0) || (dev[i] <= 0 && dev[i-1] > 0) {
			crossings++
		}
	}
	return crossings
}

// isJanta detects a single silence-free dip-and-return: the contour starts
// and ends on the note, leaves the tolerance window only in its interior,
// and never strays far enough to reach a different scale degree.
func (c *Classifier) isJanta(sub []pitch.Frame, dev []float64) bool {
	tol := c.params.ToleranceCents

	// Endpoints must sit on the note
	if math.Abs(dev[0]) > tol || math.Abs(dev[len(dev)-1]) > tol {
		return false
	}

	// No silence gap: consecutive voiced frames at most two hops apart
	for i := 1; i < len(sub); i++ {
		if sub[i].Time-sub[i-1].Time > 2.0*c.params.HopSeconds+1e-9 {
			return false
		}
	}

	peak := 0.0
	for _, d := range dev[1 : len(dev)-1] {
		if math.Abs(d) > peak {
			peak = math.Abs(d)
		}
	}

	return peak > tol && peak <= c.params.MaxJantaExcursionCents
}
