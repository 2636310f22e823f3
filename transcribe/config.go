package transcribe

// Config holds the pipeline's analysis parameters. The defaults replicate
// the documented contract exactly; the tolerance, default tonic and gamakam
// thresholds are observable behavior, not tuning knobs.
type Config struct {
	// Pitch extraction
	WindowSize   int     `json:"window_size"`
	HopSize      int     `json:"hop_size"`
	MinFreq      float64 `json:"min_freq"` // Hz
	MaxFreq      float64 `json:"max_freq"` // Hz
	YinThreshold float64 `json:"yin_threshold"`
	VoicingFloor float64 `json:"voicing_floor"`

	// Swaram matching
	ToleranceCents float64 `json:"tolerance_cents"`
	DefaultTonicHz float64 `json:"default_tonic_hz"`

	// Gamakam classification
	GamakamMinCrossings int     `json:"gamakam_min_crossings"`
	GamakamFloorCents   float64 `json:"gamakam_floor_cents"`
	JantaExcursionCents float64 `json:"janta_excursion_cents"`
}

// DefaultConfig returns the standard transcription configuration: 2048
// sample windows at a 512 sample hop (~11.6 ms at 44.1 kHz), ±10 cent
// swaram tolerance, and a default tonic of 131 Hz (approximately C3, a
// common vocal sruti).
func DefaultConfig() *Config {
	return &Config{
		WindowSize:   2048,
		HopSize:      512,
		MinFreq:      65.41,  // C2
		MaxFreq:      2093.0, // C7
		YinThreshold: 0.15,
		VoicingFloor: 0.45,

		ToleranceCents: 10.0,
		DefaultTonicHz: 131.0,

		GamakamMinCrossings: 3,
		GamakamFloorCents:   5.0,
		JantaExcursionCents: 45.0,
	}
}
