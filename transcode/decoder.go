// Package transcode decodes uploaded audio into the canonical form the
// pipeline consumes: a single-channel float64 buffer at a known sample
// rate, peak-normalized. The core places no duration limit itself; the
// bounds here cap cost at the boundary.
package transcode

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-audio/wav"

	"github.com/sargamlabs/sargam/logging"
)

// Duration bounds enforced at decode time
const (
	MinDuration = 500 * time.Millisecond
	MaxDuration = 5 * time.Minute
)

// AudioData represents decoded audio data
type AudioData struct {
	PCM        []float64     `json:"-"` // Mono samples in [-1, 1]
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"` // Channel count of the source file
	Duration   time.Duration `json:"duration"`
}

// Decoder reads WAV files into AudioData
type Decoder struct {
	logger logging.Logger
}

// NewDecoder creates a WAV decoder
func NewDecoder() *Decoder {
	return &Decoder{
		logger: logging.WithFields(logging.Fields{"component": "decoder"}),
	}
}

// DecodeFile decodes a WAV file, downmixing multi-channel audio to mono by
// averaging and normalizing the result to unit peak
func (d *Decoder) DecodeFile(path string) (*AudioData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid WAV file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading PCM from %s: %w", path, err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("%s contains no audio data", path)
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		return nil, fmt.Errorf("%s reports %d channels", path, channels)
	}
	sampleRate := buf.Format.SampleRate
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%s reports sample rate %d", path, sampleRate)
	}

	mono := downmix(buf.Data, channels, int(dec.BitDepth))
	normalize(mono)

	duration := time.Duration(float64(len(mono)) / float64(sampleRate) * float64(time.Second))
	if duration < MinDuration {
		return nil, fmt.Errorf("audio too short: %v (minimum %v)", duration, MinDuration)
	}
	if duration > MaxDuration {
		return nil, fmt.Errorf("audio too long: %v (maximum %v)", duration, MaxDuration)
	}

	d.logger.Debug("decoded WAV file", logging.Fields{
		"path":        path,
		"sample_rate": sampleRate,
		"channels":    channels,
		"duration":    duration.Seconds(),
	})

	return &AudioData{
		PCM:        mono,
		SampleRate: sampleRate,
		Channels:   channels,
		Duration:   duration,
	}, nil
}

// downmix converts interleaved integer PCM to mono float64 in [-1, 1]
func downmix(data []int, channels, bitDepth int) []float64 {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	frames := len(data) / channels
	mono := make([]float64, frames)

	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(data[i*channels+c])
		}
		mono[i] = sum / float64(channels) / scale
	}

	return mono
}

// normalize scales samples in place to unit peak, leaving silence untouched
func normalize(samples []float64) {
	peak := 0.0
	for _, v := range samples {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	if peak < 1e-9 {
		return
	}
	for i := range samples {
		samples[i] /= peak
	}
}
