package swara

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sargamlabs/sargam/algorithms/pitch"
)

// Note is one merged swaram with timing, octave, optional ornamentation
// label and a confidence score. End is exclusive. Notes are immutable once
// emitted; the ordered note sequence is the pipeline's primary output.
type Note struct {
	Start      float64     `json:"start"` // seconds
	End        float64     `json:"end"`   // seconds, exclusive
	Swaram     ScaleDegree `json:"swaram"`
	Octave     Octave      `json:"octave"`
	Gamakam    string      `json:"gamakam,omitempty"` // empty = no ornamentation
	Confidence float64     `json:"confidence"`        // mean voicing confidence (0-1)
}

// Duration returns the note length in seconds
func (n Note) Duration() float64 {
	return n.End - n.Start
}

// MapperParams contains parameters for contour-to-note mapping
type MapperParams struct {
	// ToleranceCents is the maximum absolute cent distance for a frame to
	// be assigned to a tone map entry. Frames outside the tolerance are
	// transition/ornament frames: they stay out of stable-note assignment
	// but remain in the note's sub-contour for ornamentation analysis.
	ToleranceCents float64 `json:"tolerance_cents"`

	// HopSeconds is the analysis hop of the incoming contour; a note ends
	// one hop after its last accepted frame
	HopSeconds float64 `json:"hop_seconds"`
}

// DefaultMapperParams returns the documented matching tolerance (±10 cents)
func DefaultMapperParams(hopSeconds float64) MapperParams {
	return MapperParams{
		ToleranceCents: 10.0,
		HopSeconds:     hopSeconds,
	}
}

// Mapper converts a pitch contour into an ordered swaram note sequence
// relative to a tonic. The mapper is stateless across calls; prevailing
// octave tracking lives only within one MapContour pass.
type Mapper struct {
	params MapperParams
}

// NewMapper creates a mapper with the given parameters
func NewMapper(params MapperParams) (*Mapper, error) {
	if params.ToleranceCents <= 0 {
		return nil, fmt.Errorf("tolerance must be positive, got %.2f cents", params.ToleranceCents)
	}
	if params.HopSeconds <= 0 {
		return nil, fmt.Errorf("hop must be positive, got %v seconds", params.HopSeconds)
	}
	return &Mapper{params: params}, nil
}

// Params returns the mapper parameters
func (m *Mapper) Params() MapperParams {
	return m.params
}

// MapContour merges maximal runs of consecutive accepted frames sharing one
// (swaram, octave) into notes. It returns the notes together with each
// note's sub-contour: every voiced frame, accepted or not, whose time falls
// inside the note's span. Sub-contours feed ornamentation analysis.
//
// A contour with zero accepted frames yields an empty sequence, not an
// error. The mapping is deterministic: identical inputs produce identical
// outputs.
func (m *Mapper) MapContour(contour pitch.Contour, tonicHz float64) ([]Note, [][]pitch.Frame, error) {
	tm, err := NewToneMap(tonicHz)
	if err != nil {
		return nil, nil, err
	}

	type run struct {
		degree      ScaleDegree
		octave      Octave
		start       float64
		end         float64
		confidences []float64
	}

	var notes []Note
	var cur *run
	prevailing := Madhya

	flush := func() {
		if cur == nil {
			return
		}
		notes = append(notes, Note{
			Start:      cur.start,
			End:        cur.end,
			Swaram:     cur.degree,
			Octave:     cur.octave,
			Confidence: stat.Mean(cur.confidences, nil),
		})
		cur = nil
	}

	for _, f := range contour {
		if !f.Voiced {
			// Silence separates notes
			flush()
			continue
		}

		tone, cents := tm.Nearest(f.Frequency, prevailing)
		if math.Abs(cents) > m.params.ToleranceCents+centEpsilon {
			// Transition/ornament frame; the surrounding note's run
			// continues across it
			continue
		}

		prevailing = tone.Octave

		if cur != nil && (cur.degree != tone.Degree || cur.octave != tone.Octave) {
			flush()
		}
		if cur == nil {
			cur = &run{
				degree: tone.Degree,
				octave: tone.Octave,
				start:  f.Time,
			}
		}

		cur.end = f.Time + m.params.HopSeconds
		cur.confidences = append(cur.confidences, f.Confidence)
	}
	flush()

	return notes, m.subContours(contour, notes), nil
}

// subContours collects, for each note, the voiced frames inside its span
func (m *Mapper) subContours(contour pitch.Contour, notes []Note) [][]pitch.Frame {
	subs := make([][]pitch.Frame, len(notes))

	i := 0
	for n, note := range notes {
		// The contour is time-ordered, so each span scan resumes where
		// the previous one stopped
		for i < len(contour) && contour[i].Time < note.Start {
			i++
		}
		for j := i; j < len(contour) && contour[j].Time < note.End; j++ {
			if contour[j].Voiced {
				subs[n] = append(subs[n], contour[j])
			}
		}
	}

	return subs
}
