package transcribe

import (
	"errors"
	"math"
	"testing"

	"github.com/sargamlabs/sargam/algorithms/pitch"
	"github.com/sargamlabs/sargam/algorithms/swara"
)

// sine generates a mono sine signal at the given frequency
func sine(freq float64, sampleRate int, duration float64) []float64 {
	n := int(duration * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.8 * math.Sin(2.0*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return samples
}

func TestTranscribeValidation(t *testing.T) {
	transcriber := NewTranscriber(nil)

	tests := []struct {
		name       string
		samples    []float64
		sampleRate int
		tonic      float64
	}{
		{"empty buffer", nil, 44100, 131.0},
		{"zero sample rate", sine(220, 44100, 1.0), 0, 131.0},
		{"negative sample rate", sine(220, 44100, 1.0), -44100, 131.0},
		{"negative tonic", sine(220, 44100, 1.0), 44100, -131.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transcriber.Transcribe(tt.samples, tt.sampleRate, tt.tonic)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Transcribe error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestTranscribeStageFaultReportsProcessingError(t *testing.T) {
	transcriber := NewTranscriber(nil)

	saved := extractContour
	defer func() { extractContour = saved }()
	extractContour = func(e *pitch.Extractor, samples []float64) (pitch.Contour, error) {
		panic("index out of range")
	}

	notes, err := transcriber.Transcribe(sine(220, 44100, 1.0), 44100, 131.0)
	if !errors.Is(err, ErrProcessing) {
		t.Fatalf("Transcribe error = %v, want ErrProcessing", err)
	}
	if errors.Is(err, ErrInvalidInput) {
		t.Error("stage fault misreported as invalid input")
	}
	if notes != nil {
		t.Errorf("stage fault returned %d notes alongside the error", len(notes))
	}
}

func TestTranscribeSilenceIsNotAnError(t *testing.T) {
	transcriber := NewTranscriber(nil)

	notes, err := transcriber.Transcribe(make([]float64, 44100), 44100, 0)
	if err != nil {
		t.Fatalf("Transcribe failed on silence: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("silence produced %d notes", len(notes))
	}
}

func TestTranscribeSustainedTone(t *testing.T) {
	transcriber := NewTranscriber(nil)
	tonic := 131.0

	// Pa of the default tonic, held steadily, merges into a single note
	// spanning the input regardless of duration
	pa := tonic * math.Pow(2, 702.0/1200.0)
	for _, seconds := range []float64{0.5, 1.0, 2.0} {
		notes, err := transcriber.Transcribe(sine(pa, 44100, seconds), 44100, 0)
		if err != nil {
			t.Fatalf("Transcribe failed for %.1fs tone: %v", seconds, err)
		}
		if len(notes) != 1 {
			t.Fatalf("%.1fs tone produced %d notes, want exactly 1", seconds, len(notes))
		}

		n := notes[0]
		if n.Swaram != swara.Pa || n.Octave != swara.Madhya {
			t.Errorf("note [%v, %v) = %s %s, want Pa Madhya",
				n.Start, n.End, n.Swaram, n.Octave)
		}
		if n.Start > 0.05 {
			t.Errorf("%.1fs tone: note starts at %v, want near 0", seconds, n.Start)
		}

		// The zero-padded tail windows go unvoiced, so the note stops a
		// little short of the very end
		if n.Duration() < 0.8*seconds {
			t.Errorf("%.1fs tone: note [%v, %v) covers %.2fs, want >= %.2fs",
				seconds, n.Start, n.End, n.Duration(), 0.8*seconds)
		}
		if n.Confidence <= 0 || n.Confidence > 1 {
			t.Errorf("note confidence %v outside (0, 1]", n.Confidence)
		}

		// A steady tone carries no ornamentation
		if n.Gamakam != "" {
			t.Errorf("steady tone labeled %q", n.Gamakam)
		}
	}
}

func TestTranscribeExplicitTonic(t *testing.T) {
	transcriber := NewTranscriber(nil)
	tonic := 146.83 // D3

	notes, err := transcriber.Transcribe(sine(tonic, 44100, 1.0), 44100, tonic)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if len(notes) == 0 {
		t.Fatal("tone at the tonic produced no notes")
	}
	for _, n := range notes {
		if n.Swaram != swara.Sa || n.Octave != swara.Madhya {
			t.Errorf("note = %s %s, want Sa Madhya", n.Swaram, n.Octave)
		}
	}
}

func TestTranscribeDeterministic(t *testing.T) {
	transcriber := NewTranscriber(nil)
	samples := sine(196.0, 44100, 1.0)

	first, err := transcriber.Transcribe(samples, 44100, 131.0)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	second, err := transcriber.Transcribe(samples, 44100, 131.0)
	if err != nil {
		t.Fatalf("Transcribe failed on second run: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("runs produced %d and %d notes", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("note %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestDetectRaagaOnTranscribedSequence(t *testing.T) {
	transcriber := NewTranscriber(nil)

	notes := make([]swara.Note, 0, 14)
	for i, d := range []swara.ScaleDegree{
		swara.Sa, swara.Ri1, swara.Ga3, swara.Ma1, swara.Pa, swara.Da1, swara.Ni3,
		swara.Ni3, swara.Da1, swara.Pa, swara.Ma1, swara.Ga3, swara.Ri1, swara.Sa,
	} {
		notes = append(notes, swara.Note{
			Start:      float64(i) * 0.25,
			End:        float64(i)*0.25 + 0.25,
			Swaram:     d,
			Octave:     swara.Madhya,
			Confidence: 0.9,
		})
	}

	match := transcriber.DetectRaaga(notes)
	if match == nil {
		t.Fatal("expected a raaga match for a complete scale")
	}
	if match.Candidate.Name != "Mayamalavagowla" {
		t.Errorf("matched %q, want Mayamalavagowla", match.Candidate.Name)
	}

	if match := transcriber.DetectRaaga(nil); match != nil {
		t.Errorf("empty sequence matched %q", match.Candidate.Name)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.DefaultTonicHz != 131.0 {
		t.Errorf("default tonic = %v, want 131", config.DefaultTonicHz)
	}
	if config.ToleranceCents != 10.0 {
		t.Errorf("tolerance = %v cents, want 10", config.ToleranceCents)
	}
	if config.WindowSize != 2048 || config.HopSize != 512 {
		t.Errorf("analysis frame = %d/%d, want 2048/512", config.WindowSize, config.HopSize)
	}
}
