package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/RyanBlaney/sonido-tutor/algorithms/common"
)

// FFT wraps mjibson/go-dsp for real-valued frames
type FFT struct{}

func NewFFT() *FFT {
	return &FFT{}
}

// Compute returns the full complex spectrum of x. go-dsp handles
// non-power-of-2 lengths.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// Magnitude returns |X[k]| for the non-negative frequencies 0..len(x)/2
func (f *FFT) Magnitude(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	spectrum := f.Compute(x)
	bins := len(x)/2 + 1
	magnitude := make([]float64, bins)
	for i := range bins {
		magnitude[i] = cmplx.Abs(spectrum[i])
	}
	return magnitude
}

// Autocorrelation returns the linear (non-circular) autocorrelation of x for
// lags 0..len(x)-1, computed as IFFT(|FFT(x)|^2) over a zero-padded buffer.
func (f *FFT) Autocorrelation(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return []float64{}
	}

	size := common.NextPowerOfTwo(2 * n)
	padded := make([]float64, size)
	copy(padded, x)

	spectrum := fft.FFTReal(padded)
	for i, c := range spectrum {
		spectrum[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}

	inverse := fft.IFFT(spectrum)
	acf := make([]float64, n)
	for i := range n {
		acf[i] = real(inverse[i])
	}
	return acf
}

// PowerSpectrum squares a magnitude spectrum
func PowerSpectrum(magnitude []float64) []float64 {
	power := make([]float64, len(magnitude))
	for i, mag := range magnitude {
		power[i] = mag * mag
	}
	return power
}

// BinFrequency returns the center frequency in Hz of bin k for an fftSize-point transform
func BinFrequency(k, fftSize, sampleRate int) float64 {
	return float64(k) * float64(sampleRate) / float64(fftSize)
}
