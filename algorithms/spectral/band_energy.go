package spectral

// BandEnergy sums the power in bins whose center frequency lies in
// [lowHz, highHz). A negative highHz extends the band to Nyquist.
func BandEnergy(power []float64, fftSize, sampleRate int, lowHz, highHz float64) float64 {
	energy := 0.0
	for k, p := range power {
		hz := BinFrequency(k, fftSize, sampleRate)
		if hz < lowHz {
			continue
		}
		if highHz >= 0 && hz >= highHz {
			break
		}
		energy += p
	}
	return energy
}

// BandEnergyRatio returns the share of total power inside the band, 0 for silence
func BandEnergyRatio(power []float64, fftSize, sampleRate int, lowHz, highHz float64) float64 {
	total := 0.0
	for _, p := range power {
		total += p
	}
	if total <= 0 {
		return 0.0
	}
	return BandEnergy(power, fftSize, sampleRate, lowHz, highHz) / total
}
