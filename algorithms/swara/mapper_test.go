package swara

import (
	"math"
	"reflect"
	"testing"

	"github.com/sargamlabs/sargam/algorithms/pitch"
)

const testHop = 0.01

// toneFrames appends count voiced frames at the given frequency, spaced one
// hop apart starting at start
func toneFrames(contour pitch.Contour, start, freq float64, count int) pitch.Contour {
	for i := 0; i < count; i++ {
		contour = append(contour, pitch.Frame{
			Time:       start + float64(i)*testHop,
			Frequency:  freq,
			Voiced:     true,
			Confidence: 0.9,
		})
	}
	return contour
}

func newTestMapper(t *testing.T) *Mapper {
	t.Helper()
	m, err := NewMapper(DefaultMapperParams(testHop))
	if err != nil {
		t.Fatalf("NewMapper failed: %v", err)
	}
	return m
}

func TestNewMapperValidation(t *testing.T) {
	if _, err := NewMapper(MapperParams{ToleranceCents: 0, HopSeconds: testHop}); err == nil {
		t.Error("NewMapper accepted zero tolerance")
	}
	if _, err := NewMapper(MapperParams{ToleranceCents: 10, HopSeconds: 0}); err == nil {
		t.Error("NewMapper accepted zero hop")
	}
}

func TestMapContourSingleTone(t *testing.T) {
	mapper := newTestMapper(t)
	tonic := 131.0
	pa := tonic * math.Pow(2, 702.0/1200.0)

	contour := toneFrames(nil, 0, pa, 50)
	notes, subs, err := mapper.MapContour(contour, tonic)
	if err != nil {
		t.Fatalf("MapContour failed: %v", err)
	}

	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}

	n := notes[0]
	if n.Swaram != Pa || n.Octave != Madhya {
		t.Errorf("note = %s %s, want Pa Madhya", n.Swaram, n.Octave)
	}
	if n.Start != 0 {
		t.Errorf("note start = %v, want 0", n.Start)
	}

	// The note ends one hop past its last accepted frame
	wantEnd := 49*testHop + testHop
	if math.Abs(n.End-wantEnd) > 1e-9 {
		t.Errorf("note end = %v, want %v", n.End, wantEnd)
	}
	if math.Abs(n.Confidence-0.9) > 1e-9 {
		t.Errorf("note confidence = %v, want 0.9", n.Confidence)
	}
	if n.Gamakam != "" {
		t.Errorf("mapper attached gamakam %q", n.Gamakam)
	}

	if len(subs) != 1 || len(subs[0]) != 50 {
		t.Fatalf("expected one 50-frame sub-contour, got %d", len(subs))
	}
}

func TestMapContourSilenceSplitsNotes(t *testing.T) {
	mapper := newTestMapper(t)
	tonic := 131.0
	sa := tonic
	pa := tonic * math.Pow(2, 702.0/1200.0)

	contour := toneFrames(nil, 0, sa, 10)
	contour = append(contour, pitch.Frame{Time: 10 * testHop}) // unvoiced
	contour = toneFrames(contour, 11*testHop, pa, 10)

	notes, _, err := mapper.MapContour(contour, tonic)
	if err != nil {
		t.Fatalf("MapContour failed: %v", err)
	}

	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	if notes[0].Swaram != Sa || notes[1].Swaram != Pa {
		t.Errorf("notes = %s, %s; want Sa, Pa", notes[0].Swaram, notes[1].Swaram)
	}
	if notes[0].End > notes[1].Start {
		t.Errorf("notes overlap: [%v, %v) then [%v, %v)",
			notes[0].Start, notes[0].End, notes[1].Start, notes[1].End)
	}
}

func TestMapContourDegreeChangeSplitsNotes(t *testing.T) {
	mapper := newTestMapper(t)
	tonic := 131.0
	ri2 := tonic * math.Pow(2, 204.0/1200.0)

	contour := toneFrames(nil, 0, tonic, 10)
	contour = toneFrames(contour, 10*testHop, ri2, 10)

	notes, _, err := mapper.MapContour(contour, tonic)
	if err != nil {
		t.Fatalf("MapContour failed: %v", err)
	}

	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	if notes[0].Swaram != Sa || notes[1].Swaram != Ri2 {
		t.Errorf("notes = %s, %s; want Sa, Ri2", notes[0].Swaram, notes[1].Swaram)
	}
}

func TestMapContourRejectedFramesKeepRunAlive(t *testing.T) {
	mapper := newTestMapper(t)
	tonic := 131.0
	pa := tonic * math.Pow(2, 702.0/1200.0)

	// 50 cents sharp of Pa: outside the +/-10 cent tolerance of every
	// entry, so the frames are rejected without ending the run
	offPitch := pa * math.Pow(2, 50.0/1200.0)

	contour := toneFrames(nil, 0, pa, 10)
	contour = toneFrames(contour, 10*testHop, offPitch, 3)
	contour = toneFrames(contour, 13*testHop, pa, 10)

	notes, subs, err := mapper.MapContour(contour, tonic)
	if err != nil {
		t.Fatalf("MapContour failed: %v", err)
	}

	if len(notes) != 1 {
		t.Fatalf("expected the run to survive rejected frames, got %d notes", len(notes))
	}
	if notes[0].Swaram != Pa {
		t.Errorf("note = %s, want Pa", notes[0].Swaram)
	}

	// The rejected frames still belong to the note's sub-contour
	if len(subs[0]) != 23 {
		t.Errorf("sub-contour has %d frames, want 23", len(subs[0]))
	}
}

func TestMapContourToleranceBoundary(t *testing.T) {
	mapper := newTestMapper(t)
	tonic := 131.0
	pa := tonic * math.Pow(2, 702.0/1200.0)

	// Exactly on the boundary: accepted
	notes, _, err := mapper.MapContour(toneFrames(nil, 0, pa*math.Pow(2, 10.0/1200.0), 5), tonic)
	if err != nil {
		t.Fatalf("MapContour failed: %v", err)
	}
	if len(notes) != 1 || notes[0].Swaram != Pa {
		t.Fatalf("frames at +10.00 cents should map to Pa, got %v", notes)
	}

	// Just past the boundary: rejected
	notes, _, err = mapper.MapContour(toneFrames(nil, 0, pa*math.Pow(2, 10.01/1200.0), 5), tonic)
	if err != nil {
		t.Fatalf("MapContour failed: %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("frames at +10.01 cents should be rejected, got %v", notes)
	}
}

func TestMapContourEmptyAndUnvoiced(t *testing.T) {
	mapper := newTestMapper(t)

	notes, subs, err := mapper.MapContour(nil, 131.0)
	if err != nil {
		t.Fatalf("MapContour failed on empty contour: %v", err)
	}
	if len(notes) != 0 || len(subs) != 0 {
		t.Errorf("empty contour produced %d notes", len(notes))
	}

	unvoiced := make(pitch.Contour, 20)
	for i := range unvoiced {
		unvoiced[i].Time = float64(i) * testHop
	}
	notes, _, err = mapper.MapContour(unvoiced, 131.0)
	if err != nil {
		t.Fatalf("MapContour failed on unvoiced contour: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("unvoiced contour produced %d notes", len(notes))
	}
}

func TestMapContourInvalidTonic(t *testing.T) {
	mapper := newTestMapper(t)
	if _, _, err := mapper.MapContour(toneFrames(nil, 0, 220, 5), 0); err == nil {
		t.Error("MapContour accepted a zero tonic")
	}
}

func TestMapContourDeterministic(t *testing.T) {
	mapper := newTestMapper(t)
	tonic := 146.83

	contour := toneFrames(nil, 0, tonic, 8)
	contour = toneFrames(contour, 8*testHop, tonic*math.Pow(2, 386.0/1200.0), 8)
	contour = append(contour, pitch.Frame{Time: 16 * testHop})
	contour = toneFrames(contour, 17*testHop, tonic*math.Pow(2, 702.0/1200.0), 8)

	first, firstSubs, err := mapper.MapContour(contour, tonic)
	if err != nil {
		t.Fatalf("MapContour failed: %v", err)
	}
	second, secondSubs, err := mapper.MapContour(contour, tonic)
	if err != nil {
		t.Fatalf("MapContour failed on second run: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different note sequences")
	}
	if !reflect.DeepEqual(firstSubs, secondSubs) {
		t.Error("identical inputs produced different sub-contours")
	}
}
