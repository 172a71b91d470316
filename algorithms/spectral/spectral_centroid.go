package spectral

// SpectralCentroid computes the magnitude-weighted mean frequency of a
// spectrum, a brightness proxy.
type SpectralCentroid struct {
	sampleRate int
	fftSize    int
	freqs      []float64
}

// NewSpectralCentroid creates a centroid calculator for fftSize-point spectra
func NewSpectralCentroid(sampleRate, fftSize int) *SpectralCentroid {
	bins := fftSize/2 + 1
	freqs := make([]float64, bins)
	for k := range bins {
		freqs[k] = BinFrequency(k, fftSize, sampleRate)
	}

	return &SpectralCentroid{
		sampleRate: sampleRate,
		fftSize:    fftSize,
		freqs:      freqs,
	}
}

// Compute returns the centroid in Hz, or 0 for an empty or silent spectrum
func (sc *SpectralCentroid) Compute(magnitude []float64) float64 {
	numerator := 0.0
	denominator := 0.0

	for k := 0; k < len(magnitude) && k < len(sc.freqs); k++ {
		numerator += sc.freqs[k] * magnitude[k]
		denominator += magnitude[k]
	}

	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// ComputeFrames returns one centroid per spectrogram frame
func (sc *SpectralCentroid) ComputeFrames(spectrogram [][]float64) []float64 {
	centroids := make([]float64, len(spectrogram))
	for t, magnitude := range spectrogram {
		centroids[t] = sc.Compute(magnitude)
	}
	return centroids
}
