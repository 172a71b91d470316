package windowing

import (
	"fmt"
	"math"
)

// Window tapers a frame before spectral analysis
type Window interface {
	// Apply returns a windowed copy of frame, or nil on a size mismatch
	Apply(frame []float64) []float64
	ApplyInPlace(frame []float64) error
	Size() int
}

// Hamming represents a Hamming window function
type Hamming struct {
	size         int
	symmetric    bool
	coefficients []float64
}

// NewHamming creates a new Hamming window. A symmetric window divides by
// size-1 (filter design convention); a periodic one divides by size.
func NewHamming(size int, symmetric bool) *Hamming {
	h := &Hamming{
		size:      size,
		symmetric: symmetric,
	}
	h.generate()
	return h
}

func (h *Hamming) generate() {
	h.coefficients = make([]float64, h.size)
	if h.size == 1 {
		h.coefficients[0] = 1.0
		return
	}

	denominator := float64(h.size)
	if h.symmetric {
		denominator = float64(h.size - 1)
	}

	for i := range h.size {
		h.coefficients[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/denominator)
	}
}

// Apply applies the window to a frame (creates new array)
func (h *Hamming) Apply(frame []float64) []float64 {
	if len(frame) != h.size {
		return nil
	}

	windowed := make([]float64, h.size)
	for i, c := range h.coefficients {
		windowed[i] = frame[i] * c
	}
	return windowed
}

// ApplyInPlace applies the window to a frame in-place
func (h *Hamming) ApplyInPlace(frame []float64) error {
	if len(frame) != h.size {
		return fmt.Errorf("frame length (%d) doesn't match window size (%d)", len(frame), h.size)
	}

	for i, c := range h.coefficients {
		frame[i] *= c
	}
	return nil
}

// Coefficients returns a copy of the window coefficients
func (h *Hamming) Coefficients() []float64 {
	coeffs := make([]float64, len(h.coefficients))
	copy(coeffs, h.coefficients)
	return coeffs
}

func (h *Hamming) Size() int {
	return h.size
}
