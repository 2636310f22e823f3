package swara

import (
	"fmt"
	"math"
)

// centEpsilon absorbs float error when comparing cent distances, so a frame
// computed at exactly the tolerance boundary still matches.
const centEpsilon = 1e-9

// Tone is one (degree, octave) entry of a ToneMap with its exact frequency
type Tone struct {
	Degree    ScaleDegree `json:"degree"`
	Octave    Octave      `json:"octave"`
	Frequency float64     `json:"frequency"` // Hz
}

// ToneMap maps every (degree, octave) pair to an exact frequency for one
// tonic. It is a pure function of the tonic: built once per transcription
// request, read-only afterward, and safe to share.
//
// Entries are ordered by (octave, degree) and strictly increase in
// frequency in that order.
type ToneMap struct {
	tonic float64
	tones []Tone
}

// NewToneMap builds the 36-entry lookup for the given tonic (Sa) frequency
func NewToneMap(tonicHz float64) (*ToneMap, error) {
	if tonicHz <= 0 || math.IsNaN(tonicHz) || math.IsInf(tonicHz, 0) {
		return nil, fmt.Errorf("tonic must be a positive frequency, got %v", tonicHz)
	}

	tones := make([]Tone, 0, NumOctaves*NumDegrees)
	for oct := Mandra; oct < NumOctaves; oct++ {
		base := tonicHz * oct.Multiplier()
		for deg := Sa; deg < NumDegrees; deg++ {
			tones = append(tones, Tone{
				Degree:    deg,
				Octave:    oct,
				Frequency: base * centsToRatio(deg.Cents()),
			})
		}
	}

	return &ToneMap{tonic: tonicHz, tones: tones}, nil
}

// Tonic returns the tonic (Sa) frequency the map was built from
func (tm *ToneMap) Tonic() float64 {
	return tm.tonic
}

// Tones returns the ordered entries; callers must not modify the slice
func (tm *ToneMap) Tones() []Tone {
	return tm.tones
}

// Frequency returns the exact frequency of a (degree, octave) pair
func (tm *ToneMap) Frequency(deg ScaleDegree, oct Octave) float64 {
	return tm.tones[int(oct)*NumDegrees+int(deg)].Frequency
}

// Nearest returns the entry closest to freq in cents along with the signed
// cent distance from that entry to freq.
//
// When two entries are exactly equidistant the one in the prevailing octave
// band wins, which keeps a wavering voice from flickering between octaves.
func (tm *ToneMap) Nearest(freq float64, prevailing Octave) (Tone, float64) {
	best := tm.tones[0]
	bestCents := centDistance(freq, best.Frequency)

	for _, t := range tm.tones[1:] {
		cents := centDistance(freq, t.Frequency)

		switch {
		case math.Abs(cents) < math.Abs(bestCents)-centEpsilon:
			best = t
			bestCents = cents
		case math.Abs(cents) <= math.Abs(bestCents)+centEpsilon:
			// Exact tie: prefer the prevailing octave
			if t.Octave == prevailing && best.Octave != prevailing {
				best = t
				bestCents = cents
			}
		}
	}

	return best, bestCents
}

// centsToRatio converts a cent offset to a frequency ratio
func centsToRatio(cents float64) float64 {
	return math.Pow(2, cents/1200.0)
}

// centDistance returns the musical distance from ref to freq in cents
func centDistance(freq, ref float64) float64 {
	return 1200.0 * math.Log2(freq/ref)
}
