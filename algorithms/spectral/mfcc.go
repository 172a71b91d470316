package spectral

import (
	"fmt"
	"math"
)

// machineEpsilon floors filterbank energies before the log
const machineEpsilon = 2.220446049250313e-16

// MFCC computes Mel-Frequency Cepstral Coefficients from magnitude spectra
type MFCC struct {
	numCoefficients int
	filterBank      *MelFilterBank
	dctMatrix       [][]float64
}

// MFCCParams contains parameters for MFCC computation
type MFCCParams struct {
	NumCoefficients int     `json:"num_coefficients"`
	NumMelFilters   int     `json:"num_mel_filters"`
	LowFreq         float64 `json:"low_freq"`
	HighFreq        float64 `json:"high_freq"` // 0 = Nyquist
}

// NewMFCC prepares the filterbank and DCT basis for an fftSize-point transform
func NewMFCC(sampleRate, fftSize int, params MFCCParams) (*MFCC, error) {
	if fftSize <= 0 {
		return nil, fmt.Errorf("invalid FFT size: %d", fftSize)
	}
	if params.NumMelFilters <= 0 {
		return nil, fmt.Errorf("invalid mel filter count: %d", params.NumMelFilters)
	}
	if params.NumCoefficients <= 0 || params.NumCoefficients > params.NumMelFilters {
		return nil, fmt.Errorf("coefficient count %d must be in 1..%d", params.NumCoefficients, params.NumMelFilters)
	}
	if params.HighFreq <= 0 {
		params.HighFreq = float64(sampleRate) / 2.0
	}

	return &MFCC{
		numCoefficients: params.NumCoefficients,
		filterBank:      NewMelFilterBank(params.NumMelFilters, fftSize, sampleRate, params.LowFreq, params.HighFreq),
		dctMatrix:       dctIIMatrix(params.NumCoefficients, params.NumMelFilters),
	}, nil
}

// Compute returns the cepstral coefficients of one magnitude spectrum:
// power spectrum, mel filterbank, epsilon floor, natural log, DCT-II.
func (m *MFCC) Compute(magnitude []float64) []float64 {
	energies := m.filterBank.Apply(PowerSpectrum(magnitude))
	for i, e := range energies {
		energies[i] = math.Log(math.Max(e, machineEpsilon))
	}

	coeffs := make([]float64, m.numCoefficients)
	for k, basis := range m.dctMatrix {
		sum := 0.0
		for n, b := range basis {
			sum += energies[n] * b
		}
		coeffs[k] = sum
	}
	return coeffs
}

// ComputeFrames processes a frames x bins magnitude spectrogram
func (m *MFCC) ComputeFrames(spectrogram [][]float64) [][]float64 {
	frames := make([][]float64, len(spectrogram))
	for t, magnitude := range spectrogram {
		frames[t] = m.Compute(magnitude)
	}
	return frames
}

// dctIIMatrix returns the first numCoefficients rows of the orthonormal
// DCT-II basis of size n.
func dctIIMatrix(numCoefficients, n int) [][]float64 {
	matrix := make([][]float64, numCoefficients)

	for k := range numCoefficients {
		scale := math.Sqrt(2.0 / float64(n))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(n))
		}

		matrix[k] = make([]float64, n)
		for i := range n {
			matrix[k][i] = scale * math.Cos(math.Pi*float64(k)*(float64(i)+0.5)/float64(n))
		}
	}

	return matrix
}
