package spectral

import (
	"math"
)

// HzToMel converts frequency in Hz to the HTK mel scale
func HzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// MelToHz converts a mel value back to Hz
func MelToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// melFilter is one triangular filter, stored from its first non-zero bin
type melFilter struct {
	start   int
	weights []float64
}

// MelFilterBank is a bank of triangular filters equally spaced on the mel
// scale, evaluated at the exact center frequency of every FFT bin.
type MelFilterBank struct {
	filters  []melFilter
	freqBins int
}

// NewMelFilterBank creates numFilters triangles spanning lowFreq..highFreq
// for an fftSize-point transform.
func NewMelFilterBank(numFilters, fftSize, sampleRate int, lowFreq, highFreq float64) *MelFilterBank {
	freqBins := fftSize/2 + 1
	bank := &MelFilterBank{
		filters:  make([]melFilter, numFilters),
		freqBins: freqBins,
	}
	if numFilters <= 0 || fftSize <= 0 {
		return bank
	}

	// numFilters+2 edge frequencies equally spaced in mel
	lowMel := HzToMel(lowFreq)
	melStep := (HzToMel(highFreq) - lowMel) / float64(numFilters+1)
	edges := make([]float64, numFilters+2)
	for i := range edges {
		edges[i] = MelToHz(lowMel + float64(i)*melStep)
	}

	for m := range numFilters {
		left, center, right := edges[m], edges[m+1], edges[m+2]

		filter := melFilter{start: -1}
		for k := range freqBins {
			hz := BinFrequency(k, fftSize, sampleRate)
			rising := (hz - left) / (center - left)
			falling := (right - hz) / (right - center)
			weight := math.Max(0, math.Min(rising, falling))

			if weight <= 0 {
				if filter.start >= 0 {
					break
				}
				continue
			}
			if filter.start < 0 {
				filter.start = k
			}
			filter.weights = append(filter.weights, weight)
		}
		if filter.start < 0 {
			// narrower than one bin
			filter.start = 0
		}
		bank.filters[m] = filter
	}

	return bank
}

// Apply projects a power spectrum onto the filters
func (b *MelFilterBank) Apply(power []float64) []float64 {
	energies := make([]float64, len(b.filters))
	for m, filter := range b.filters {
		sum := 0.0
		for i, w := range filter.weights {
			k := filter.start + i
			if k >= len(power) {
				break
			}
			sum += power[k] * w
		}
		energies[m] = sum
	}
	return energies
}

// NumFilters returns the number of filters in the bank
func (b *MelFilterBank) NumFilters() int {
	return len(b.filters)
}
