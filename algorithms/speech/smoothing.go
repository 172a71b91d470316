package speech

import (
	"math"
)

// Smoother suppresses harmonic ripple in a magnitude spectrum so that the
// envelope peaks (formants) dominate.
type Smoother interface {
	Smooth(spectrum []float64) []float64
}

// GaussianSmoother convolves with a normalized Gaussian kernel truncated at
// four standard deviations. Edges are extended by reflection (d c b a | a b c d).
type GaussianSmoother struct {
	sigma  float64
	kernel []float64
	radius int
}

// NewGaussianSmoother creates a smoother with the given sigma in bins.
// A non-positive sigma returns nil.
func NewGaussianSmoother(sigma float64) *GaussianSmoother {
	if sigma <= 0 {
		return nil
	}

	radius := int(4*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-0.5 * x * x / (sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	return &GaussianSmoother{
		sigma:  sigma,
		kernel: kernel,
		radius: radius,
	}
}

func (g *GaussianSmoother) Smooth(spectrum []float64) []float64 {
	n := len(spectrum)
	smoothed := make([]float64, n)

	for i := range n {
		sum := 0.0
		for j, w := range g.kernel {
			sum += w * spectrum[reflectIndex(i+j-g.radius, n)]
		}
		smoothed[i] = sum
	}

	return smoothed
}

// reflectIndex maps an out-of-range index back into [0, n) by mirroring
// about the half-sample edges, repeating for kernels wider than the signal.
func reflectIndex(i, n int) int {
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i - 1
	}
	return i
}
