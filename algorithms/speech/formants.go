package speech

import (
	"errors"

	"github.com/RyanBlaney/sonido-tutor/algorithms/spectral"
	"github.com/RyanBlaney/sonido-tutor/config"
)

// ErrNoSmoother is returned when a FormantTracker has no spectral smoother.
// Callers are expected to fall back to a zero-filled formant track.
var ErrNoSmoother = errors.New("formant tracking requires a spectral smoother")

// minBandEnergy is the smoothed magnitude below which a band is treated as empty
const minBandEnergy = 1e-12

// FormantTracker estimates F1-F3 per frame as the peak of the smoothed
// magnitude spectrum inside three fixed frequency bands.
type FormantTracker struct {
	bands    [3][2]float64
	smoother Smoother
}

// NewFormantTracker creates a tracker. smoother may be nil, in which case
// Track returns ErrNoSmoother.
func NewFormantTracker(params config.FormantConfig, smoother Smoother) *FormantTracker {
	return &FormantTracker{
		bands:    params.Bands,
		smoother: smoother,
	}
}

// Track returns F1, F2, F3 in Hz for every frame of the spectrogram
func (ft *FormantTracker) Track(stft *spectral.STFTResult) ([][3]float64, error) {
	if ft.smoother == nil {
		return nil, ErrNoSmoother
	}

	track := make([][3]float64, stft.TimeFrames)
	for t, magnitude := range stft.Magnitude {
		track[t] = ft.FrameFormants(ft.smoother.Smooth(magnitude), stft.WindowSize, stft.SampleRate)
	}
	return track, nil
}

// FrameFormants picks the frequency of maximum energy in each band of an
// already smoothed spectrum. A band above Nyquist or without energy gives 0.
func (ft *FormantTracker) FrameFormants(smoothed []float64, fftSize, sampleRate int) [3]float64 {
	var formants [3]float64
	nyquist := float64(sampleRate) / 2

	for b, band := range ft.bands {
		low, high := band[0], min(band[1], nyquist)
		if low >= nyquist {
			continue
		}

		bestBin, bestEnergy := -1, minBandEnergy
		for k, energy := range smoothed {
			hz := spectral.BinFrequency(k, fftSize, sampleRate)
			if hz < low {
				continue
			}
			if hz > high {
				break
			}
			if energy > bestEnergy {
				bestBin, bestEnergy = k, energy
			}
		}

		if bestBin >= 0 {
			formants[b] = spectral.BinFrequency(bestBin, fftSize, sampleRate)
		}
	}

	return formants
}
