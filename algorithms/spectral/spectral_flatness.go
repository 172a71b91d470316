package spectral

import (
	"math"
)

// flatnessFloor keeps log() finite for empty bins
const flatnessFloor = 1e-10

// Flatness returns the Wiener entropy of a power spectrum: the ratio of its
// geometric mean to its arithmetic mean, in [0, 1]. Values near 0 are tonal
// (voiced speech), values near 1 are noise-like. A silent spectrum yields 0.
func Flatness(power []float64) float64 {
	if len(power) == 0 {
		return 0.0
	}

	logSum := 0.0
	sum := 0.0
	for _, p := range power {
		p = math.Max(p, flatnessFloor)
		logSum += math.Log(p)
		sum += p
	}

	arithmeticMean := sum / float64(len(power))
	if arithmeticMean <= flatnessFloor {
		return 0.0
	}

	geometricMean := math.Exp(logSum / float64(len(power)))
	return math.Min(geometricMean/arithmeticMean, 1.0)
}
