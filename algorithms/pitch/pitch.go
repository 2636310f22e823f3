package pitch

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Frame is a single pitch observation at one analysis hop.
// Frequency is only meaningful when Voiced is true; unvoiced frames keep
// Frequency at zero rather than carrying a guessed value.
type Frame struct {
	Time       float64 `json:"time"`       // Frame start time in seconds
	Frequency  float64 `json:"frequency"`  // Estimated F0 in Hz (0 when unvoiced)
	Voiced     bool    `json:"voiced"`     // Whether the frame carries a usable pitch
	Confidence float64 `json:"confidence"` // Voicing probability (0-1)
}

// Contour is the ordered, time-indexed pitch track of a whole signal,
// one Frame per analysis hop.
type Contour []Frame

// VoicedFraction returns the fraction of frames that carry a pitch
func (c Contour) VoicedFraction() float64 {
	if len(c) == 0 {
		return 0.0
	}

	voiced := 0
	for _, f := range c {
		if f.Voiced {
			voiced++
		}
	}
	return float64(voiced) / float64(len(c))
}

// MeanFrequency returns the mean F0 across voiced frames, 0 if none
func (c Contour) MeanFrequency() float64 {
	freqs := make([]float64, 0, len(c))
	for _, f := range c {
		if f.Voiced {
			freqs = append(freqs, f.Frequency)
		}
	}

	if len(freqs) == 0 {
		return 0.0
	}
	return stat.Mean(freqs, nil)
}

// Params contains parameters for pitch extraction
type Params struct {
	SampleRate int `json:"sample_rate"`
	WindowSize int `json:"window_size"`
	HopSize    int `json:"hop_size"`

	// Frequency range constraints
	MinFreq float64 `json:"min_freq"` // Minimum frequency (Hz)
	MaxFreq float64 `json:"max_freq"` // Maximum frequency (Hz)

	// Algorithm parameters
	YinThreshold float64 `json:"yin_threshold"` // YIN absolute threshold (0.1-0.5)
	VoicingFloor float64 `json:"voicing_floor"` // Minimum voicing probability
}

// DefaultParams returns extraction parameters tuned for solo vocal input.
// The frequency range spans roughly two octaves below and two above a
// typical vocal tonic (C2-C7) to reject octave errors and non-vocal noise.
func DefaultParams(sampleRate int) Params {
	return Params{
		SampleRate:   sampleRate,
		WindowSize:   2048,
		HopSize:      512,
		MinFreq:      65.41,  // C2
		MaxFreq:      2093.0, // C7
		YinThreshold: 0.15,
		VoicingFloor: 0.45,
	}
}

// Extractor converts a mono sample buffer into a pitch Contour
//
// References:
// - de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental frequency estimator for speech and music"
// - Brossier, P. (2006). "Automatic annotation of musical audio for interactive applications" (YIN-FFT)
type Extractor struct {
	params Params
}

// NewExtractor creates a pitch extractor with the given parameters
func NewExtractor(params Params) (*Extractor, error) {
	if params.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", params.SampleRate)
	}
	if params.WindowSize <= 0 || params.HopSize <= 0 {
		return nil, fmt.Errorf("window size (%d) and hop size (%d) must be positive", params.WindowSize, params.HopSize)
	}
	if params.HopSize > params.WindowSize {
		return nil, fmt.Errorf("hop size (%d) exceeds window size (%d)", params.HopSize, params.WindowSize)
	}
	if params.MinFreq <= 0 || params.MaxFreq <= params.MinFreq {
		return nil, fmt.Errorf("invalid frequency range [%.1f, %.1f]", params.MinFreq, params.MaxFreq)
	}

	return &Extractor{params: params}, nil
}

// Params returns the extractor parameters
func (e *Extractor) Params() Params {
	return e.params
}

// HopSeconds returns the analysis hop interval in seconds
func (e *Extractor) HopSeconds() float64 {
	return float64(e.params.HopSize) / float64(e.params.SampleRate)
}

// Extract produces one Frame per hop covering the full signal duration.
// The tail window is zero-padded so the last partial hop is still analyzed.
// An all-silent input yields a contour of unvoiced frames and no error.
func (e *Extractor) Extract(samples []float64) (Contour, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("empty sample buffer")
	}

	numFrames := (len(samples) + e.params.HopSize - 1) / e.params.HopSize
	contour := make(Contour, 0, numFrames)
	frame := make([]float64, e.params.WindowSize)

	for k := 0; k < numFrames; k++ {
		start := k * e.params.HopSize

		// Copy the analysis window, zero-padding past the end of the signal
		n := copy(frame, samples[start:min(start+e.params.WindowSize, len(samples))])
		for i := n; i < len(frame); i++ {
			frame[i] = 0.0
		}

		t := float64(start) / float64(e.params.SampleRate)

		if rms(frame) < silenceRMS {
			contour = append(contour, Frame{Time: t})
			continue
		}

		est := e.analyzeFrame(frame)

		f := Frame{Time: t, Confidence: est.probability}
		if est.voiced && est.probability >= e.params.VoicingFloor &&
			est.frequency >= e.params.MinFreq && est.frequency <= e.params.MaxFreq {
			f.Voiced = true
			f.Frequency = est.frequency
		}
		contour = append(contour, f)
	}

	return contour, nil
}

// silenceRMS is the energy floor below which a frame is unvoiced without analysis
const silenceRMS = 1e-5

func rms(frame []float64) float64 {
	sum := 0.0
	for _, v := range frame {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}
