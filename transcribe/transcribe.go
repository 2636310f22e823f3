// Package transcribe wires the analysis stages into the transcription
// pipeline: pitch extraction, swaram mapping, gamakam classification and
// raaga matching. Each stage fully consumes its predecessor's output; data
// flows strictly forward.
package transcribe

import (
	"errors"
	"fmt"

	"github.com/sargamlabs/sargam/algorithms/gamakam"
	"github.com/sargamlabs/sargam/algorithms/pitch"
	"github.com/sargamlabs/sargam/algorithms/swara"
	"github.com/sargamlabs/sargam/logging"
	"github.com/sargamlabs/sargam/raaga"
)

// Error kinds for the pipeline boundary. Degenerate content (silence, pure
// noise, too few notes for raaga matching) is NOT an error: it propagates
// as empty or absent results.
var (
	// ErrInvalidInput marks input-shape failures: empty buffers,
	// non-positive sample rates, negative tonics. Rejected before any
	// analysis runs.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProcessing marks an internal fault inside a stage, caught at the
	// pipeline boundary
	ErrProcessing = errors.New("processing failure")
)

// Transcriber runs the full pipeline. It holds no per-request state: the
// tone map is rebuilt from each request's tonic and the raaga catalog is
// shared read-only, so one Transcriber may serve concurrent requests.
type Transcriber struct {
	config  *Config
	matcher *raaga.Matcher
	logger  logging.Logger
}

// NewTranscriber creates a transcriber; a nil config selects DefaultConfig
func NewTranscriber(config *Config) *Transcriber {
	if config == nil {
		config = DefaultConfig()
	}

	return &Transcriber{
		config:  config,
		matcher: raaga.NewMatcher(nil),
		logger:  logging.WithFields(logging.Fields{"component": "transcriber"}),
	}
}

// Config returns the transcriber's configuration
func (t *Transcriber) Config() *Config {
	return t.config
}

// Transcribe converts a decoded mono signal into the ordered swaram note
// sequence. A zero tonic selects the configured default; a negative tonic
// is invalid. Silence or unmatchable content yields an empty sequence and
// no error.
func (t *Transcriber) Transcribe(samples []float64, sampleRate int, tonicHz float64) (notes []swara.Note, err error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: empty sample buffer", ErrInvalidInput)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidInput, sampleRate)
	}
	if tonicHz < 0 {
		return nil, fmt.Errorf("%w: tonic must be positive, got %.2f Hz", ErrInvalidInput, tonicHz)
	}
	if tonicHz == 0 {
		tonicHz = t.config.DefaultTonicHz
	}

	// No stage has a recoverable failure mode past validation, so a fault
	// deep in the numerics surfaces as a single processing-failure outcome
	// distinguishable from both invalid input and degenerate content
	defer func() {
		if r := recover(); r != nil {
			notes = nil
			err = fmt.Errorf("%w: %v", ErrProcessing, r)
		}
	}()

	extractor, err := pitch.NewExtractor(pitch.Params{
		SampleRate:   sampleRate,
		WindowSize:   t.config.WindowSize,
		HopSize:      t.config.HopSize,
		MinFreq:      t.config.MinFreq,
		MaxFreq:      t.config.MaxFreq,
		YinThreshold: t.config.YinThreshold,
		VoicingFloor: t.config.VoicingFloor,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	contour, err := extractContour(extractor, samples)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessing, err)
	}

	hopSeconds := extractor.HopSeconds()
	t.logger.Debug("pitch contour extracted", logging.Fields{
		"frames":          len(contour),
		"voiced_fraction": contour.VoicedFraction(),
		"mean_frequency":  contour.MeanFrequency(),
	})

	mapper, err := swara.NewMapper(swara.MapperParams{
		ToleranceCents: t.config.ToleranceCents,
		HopSeconds:     hopSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	notes, subContours, err := mapper.MapContour(contour, tonicHz)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	t.annotateGamakams(notes, subContours, tonicHz, hopSeconds)

	t.logger.Info("transcription complete", logging.Fields{
		"notes":    len(notes),
		"tonic_hz": tonicHz,
		"duration": float64(len(samples)) / float64(sampleRate),
	})

	return notes, nil
}

// extractContour runs the extraction stage; swapped out in tests
var extractContour = func(e *pitch.Extractor, samples []float64) (pitch.Contour, error) {
	return e.Extract(samples)
}

// annotateGamakams attaches ornamentation labels to the merged notes using
// each note's raw frame sub-contour
func (t *Transcriber) annotateGamakams(notes []swara.Note, subContours [][]pitch.Frame, tonicHz, hopSeconds float64) {
	if len(notes) == 0 {
		return
	}

	// Cheap pure function of the tonic; rebuilt rather than threaded
	// through the mapper's return values
	tm, err := swara.NewToneMap(tonicHz)
	if err != nil {
		return
	}

	classifier := gamakam.NewClassifier(gamakam.Params{
		MinCrossings:           t.config.GamakamMinCrossings,
		AudibilityFloorCents:   t.config.GamakamFloorCents,
		ToleranceCents:         t.config.ToleranceCents,
		MaxJantaExcursionCents: t.config.JantaExcursionCents,
		HopSeconds:             hopSeconds,
	})

	for i := range notes {
		center := tm.Frequency(notes[i].Swaram, notes[i].Octave)
		notes[i].Gamakam = classifier.Classify(subContours[i], center, notes[i].Duration())
	}
}

// DetectRaaga matches a finished note sequence against the raaga catalog.
// It returns nil, never an error, when no candidate reaches the minimum
// confidence or the sequence is empty.
func (t *Transcriber) DetectRaaga(notes []swara.Note) *raaga.Match {
	match := t.matcher.Detect(notes)

	if match != nil {
		t.logger.Debug("raaga detected", logging.Fields{
			"raaga":      match.Candidate.Name,
			"confidence": match.Confidence,
		})
	}

	return match
}
