package filters

import (
	"math"
)

// DCBlocker is a one-pole high-pass filter that removes the DC offset a
// microphone or converter adds to a recording.
//
// References:
//   - Julius O. Smith III, "Introduction to Digital Filters with Audio Applications"
//     https://ccrma.stanford.edu/~jos/filters/DC_Blocker.html
type DCBlocker struct {
	poleLocation float64 // R parameter (0 < R < 1)
}

// NewDCBlocker creates a blocker with the given -3dB cutoff, using
// R = 1 - 2*pi*fc/fs (valid for fc << fs/2)
func NewDCBlocker(sampleRate int, cutoffFreq float64) *DCBlocker {
	pole := 0.995
	if sampleRate > 0 && cutoffFreq > 0 {
		pole = 1.0 - (2.0 * math.Pi * cutoffFreq / float64(sampleRate))
	}

	// Clamp to valid range
	pole = math.Min(math.Max(pole, 0.001), 0.999)

	return &DCBlocker{poleLocation: pole}
}

// Apply filters a whole signal with
// y[n] = x[n] - x[n-1] + R * y[n-1]
// Filter state lives only for the duration of the call.
func (dc *DCBlocker) Apply(signal []float64) []float64 {
	output := make([]float64, len(signal))

	x1, y1 := 0.0, 0.0
	for i, x := range signal {
		y := x - x1 + dc.poleLocation*y1
		output[i] = y
		x1, y1 = x, y
	}

	return output
}

// CutoffFrequency inverts the design formula: fc = (1-R)*fs/(2*pi)
func (dc *DCBlocker) CutoffFrequency(sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0.0
	}
	return (1.0 - dc.poleLocation) * float64(sampleRate) / (2.0 * math.Pi)
}
