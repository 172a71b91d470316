package spectral

// ZeroCrossingRate returns the fraction of adjacent sample pairs in frame that
// change sign, in [0, 1]. High values indicate fricatives or noise, low values
// voiced speech.
func ZeroCrossingRate(frame []float64) float64 {
	if len(frame) < 2 {
		return 0.0
	}

	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i-1] >= 0) != (frame[i] >= 0) {
			crossings++
		}
	}

	return float64(crossings) / float64(len(frame)-1)
}
