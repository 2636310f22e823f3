package pitch

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// estimate is the outcome of analyzing a single frame
type estimate struct {
	frequency   float64
	probability float64
	voiced      bool
}

// analyzeFrame runs YIN on one analysis window.
//
// The difference function d(tau) = sum_{j<W} (x[j] - x[j+tau])^2 expands to
// E(0) + E(tau) - 2*C(tau) with W = window/2; the cross term C is computed
// via FFT so a frame costs O(n log n) instead of O(n^2).
func (e *Extractor) analyzeFrame(frame []float64) estimate {
	n := len(frame)
	half := n / 2

	corr := crossTerm(frame, half)

	// Prefix sums of squared samples for the energy terms
	prefix := make([]float64, n+1)
	for i, v := range frame {
		prefix[i+1] = prefix[i] + v*v
	}
	e0 := prefix[half]

	diff := make([]float64, half)
	for tau := 1; tau < half; tau++ {
		eTau := prefix[tau+half] - prefix[tau]
		d := e0 + eTau - 2.0*corr[tau]
		if d < 0 {
			d = 0 // numerical noise near perfect periodicity
		}
		diff[tau] = d
	}

	// Cumulative mean normalized difference function
	cmndf := make([]float64, half)
	cmndf[0] = 1.0

	runningSum := 0.0
	for tau := 1; tau < half; tau++ {
		runningSum += diff[tau]
		if runningSum > 0 {
			cmndf[tau] = diff[tau] * float64(tau) / runningSum
		} else {
			cmndf[tau] = 1.0
		}
	}

	// Restrict the lag search to the configured frequency range
	minTau := max(2, int(float64(e.params.SampleRate)/e.params.MaxFreq))
	maxTau := min(half-1, int(float64(e.params.SampleRate)/e.params.MinFreq)+1)
	if minTau >= maxTau {
		return estimate{}
	}

	// First local minimum below the absolute threshold
	minIdx := -1
	for tau := minTau; tau <= maxTau; tau++ {
		if cmndf[tau] < e.params.YinThreshold {
			for tau+1 <= maxTau && cmndf[tau+1] < cmndf[tau] {
				tau++
			}
			minIdx = tau
			break
		}
	}

	if minIdx < 0 {
		// No dip below threshold: report the best probability seen so the
		// caller can still judge near-voiced content, but mark unvoiced
		best := cmndf[minTau]
		for tau := minTau + 1; tau <= maxTau; tau++ {
			if cmndf[tau] < best {
				best = cmndf[tau]
			}
		}
		return estimate{probability: clampUnit(1.0 - best)}
	}

	period := parabolicInterpolation(cmndf, minIdx)
	if period <= 0 {
		return estimate{}
	}

	return estimate{
		frequency:   float64(e.params.SampleRate) / period,
		probability: clampUnit(1.0 - cmndf[minIdx]),
		voiced:      true,
	}
}

// crossTerm computes C(tau) = sum_{j<half} x[j]*x[j+tau] for all tau < half
// using zero-padded FFTs (linear, not circular, correlation)
func crossTerm(frame []float64, half int) []float64 {
	n := len(frame)
	size := 2 * n

	padded := make([]float64, size)
	copy(padded, frame)

	head := make([]float64, size)
	copy(head, frame[:half])

	specFull := fft.FFTReal(padded)
	specHead := fft.FFTReal(head)

	prod := make([]complex128, size)
	for i := range prod {
		prod[i] = specFull[i] * cmplx.Conj(specHead[i])
	}

	inv := fft.IFFT(prod)

	corr := make([]float64, half)
	for tau := range corr {
		corr[tau] = real(inv[tau])
	}
	return corr
}

// parabolicInterpolation refines a minimum location for sub-sample accuracy
func parabolicInterpolation(data []float64, peakIdx int) float64 {
	if peakIdx <= 0 || peakIdx >= len(data)-1 {
		return float64(peakIdx)
	}

	y1 := data[peakIdx-1]
	y2 := data[peakIdx]
	y3 := data[peakIdx+1]

	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2

	if a == 0 {
		return float64(peakIdx)
	}

	xPeak := -b / (2 * a)

	// A vertex more than half a sample away means the neighborhood is not
	// parabolic; keep the integer lag
	if math.Abs(xPeak) > 1 {
		return float64(peakIdx)
	}

	return float64(peakIdx) + xPeak
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
